package bakery

import (
	"context"

	"github.com/shopspring/decimal"
)

// Default prices used when nothing is stored.
var (
	DefaultCashPrice        = decimal.NewFromInt(20)
	DefaultFactoryPrice     = decimal.NewFromInt(15)
	DefaultDistributorPrice = decimal.NewFromInt(16)
)

// DefaultCashAccount is the sales line name for walk-in cash sales.
const DefaultCashAccount = "كاش"

// DefaultDistributors is the fixed distributor round.
var DefaultDistributors = []string{"هيثم", "وجيه", "المفرش", "علي", "درهم"}

// DefaultOtherItems are the non-distribution items sold by amount.
var DefaultOtherItems = []string{"روتي طويل", "كيك", "خبز", "فحم"}

// ChannelKind is how a sale is priced.
type ChannelKind int

const (
	ChannelCash ChannelKind = iota
	ChannelDistributor
	ChannelFactory
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelCash:
		return "cash"
	case ChannelDistributor:
		return "distributor"
	default:
		return "factory"
	}
}

// Channel identifies a sales line for pricing. Name is only meaningful for
// distributors.
type Channel struct {
	Kind ChannelKind
	Name string
}

func CashChannel() Channel                   { return Channel{Kind: ChannelCash} }
func FactoryChannel() Channel                { return Channel{Kind: ChannelFactory} }
func DistributorChannel(name string) Channel { return Channel{Kind: ChannelDistributor, Name: name} }

// =============================================================================
// PRICE RESOLVER
// =============================================================================

// PriceResolver resolves unit prices from the settings store. It reads the
// store on every call and keeps no state of its own.
type PriceResolver struct {
	settings     SettingsStore
	cashAccount  string
	distributors map[string]bool
}

// NewPriceResolver creates a resolver. distributors is the configured round;
// names outside it are still priced as distributors when they have a stored
// override.
func NewPriceResolver(settings SettingsStore, cashAccount string, distributors []string) *PriceResolver {
	if cashAccount = CleanAccountName(cashAccount); cashAccount == "" {
		cashAccount = DefaultCashAccount
	}
	known := make(map[string]bool, len(distributors))
	for _, d := range CleanAccountNames(distributors) {
		known[d] = true
	}
	return &PriceResolver{settings: settings, cashAccount: cashAccount, distributors: known}
}

// Resolve returns the unit price for a channel. Absent values fall back to
// the defaults; only storage failures are returned.
func (r *PriceResolver) Resolve(ctx context.Context, ch Channel) (decimal.Decimal, error) {
	switch ch.Kind {
	case ChannelCash:
		return r.setting(ctx, SettingPriceCash, DefaultCashPrice)
	case ChannelDistributor:
		price, ok, err := r.settings.DistributorPrice(ctx, ch.Name)
		if err != nil {
			return decimal.Zero, storageErr("load distributor price", err)
		}
		if !ok {
			return DefaultDistributorPrice, nil
		}
		return price, nil
	default:
		return r.setting(ctx, SettingPriceFactory, DefaultFactoryPrice)
	}
}

// ResolveFor classifies a sales line name and resolves its price.
func (r *PriceResolver) ResolveFor(ctx context.Context, name string) (decimal.Decimal, Channel, error) {
	ch, err := r.ChannelFor(ctx, name)
	if err != nil {
		return decimal.Zero, ch, err
	}
	price, err := r.Resolve(ctx, ch)
	return price, ch, err
}

// ChannelFor classifies a sales line name: the cash account, a distributor
// (configured or with a stored override), or factory/other.
func (r *PriceResolver) ChannelFor(ctx context.Context, name string) (Channel, error) {
	name = CleanAccountName(name)
	if name == r.cashAccount {
		return CashChannel(), nil
	}
	if r.distributors[name] {
		return DistributorChannel(name), nil
	}
	_, ok, err := r.settings.DistributorPrice(ctx, name)
	if err != nil {
		return Channel{}, storageErr("load distributor price", err)
	}
	if ok {
		return DistributorChannel(name), nil
	}
	return FactoryChannel(), nil
}

// DeficitPrice is the price used to value a production shortfall.
func (r *PriceResolver) DeficitPrice(ctx context.Context) (decimal.Decimal, error) {
	return r.setting(ctx, SettingPriceDistributor, DefaultDistributorPrice)
}

// Setting returns a global setting or its default.
func (r *PriceResolver) Setting(ctx context.Context, key SettingKey) (decimal.Decimal, error) {
	return r.setting(ctx, key, DefaultSetting(key))
}

func (r *PriceResolver) setting(ctx context.Context, key SettingKey, fallback decimal.Decimal) (decimal.Decimal, error) {
	v, ok, err := r.settings.Setting(ctx, key)
	if err != nil {
		return decimal.Zero, storageErr("load setting "+string(key), err)
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

// DefaultSetting returns the fallback value of a setting.
func DefaultSetting(key SettingKey) decimal.Decimal {
	switch key {
	case SettingPriceCash:
		return DefaultCashPrice
	case SettingPriceFactory:
		return DefaultFactoryPrice
	case SettingPriceDistributor:
		return DefaultDistributorPrice
	}
	return decimal.Zero
}
