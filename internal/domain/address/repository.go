package address

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Address, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Create(ctx context.Context, a *Address) (*Address, error)
}
