package budget

import "context"

// Gate decides per owner whether item spend is mirrored into the ledger.
type Gate interface {
	AutoDeduct(ctx context.Context, owner string) (bool, error)
}

// StaticGate answers the same for every owner.
type StaticGate bool

func (g StaticGate) AutoDeduct(context.Context, string) (bool, error) {
	return bool(g), nil
}
