package profiles

import "context"

// Repository port for profile lookup. Profiles are managed elsewhere;
// the core only reads them.
type Repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
