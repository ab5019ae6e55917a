package location

import "context"

type LocationRepository interface {
	GetByCode(ctx context.Context, code string) (Location, error)
}
