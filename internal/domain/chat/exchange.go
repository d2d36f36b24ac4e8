package chat

import "context"

type exchangeKey struct{}

// WithExchangeID tags ctx with the id of the HTTP exchange being answered.
func WithExchangeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, exchangeKey{}, id)
}

// ExchangeID returns the id set by WithExchangeID, or "".
func ExchangeID(ctx context.Context) string {
	id, _ := ctx.Value(exchangeKey{}).(string)
	return id
}
