package repository

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// VenueRepo lists venues for the browse and status forms.
type VenueRepo struct{ store *Store }

func NewVenueRepo(store *Store) *VenueRepo { return &VenueRepo{store: store} }

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, "SELECT name, address, capacity FROM Venue ORDER BY name, address")
	if err != nil {
		return nil, classify("list venues", err)
	}
	defer rows.Close()
	out := []model.Venue{}
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.Name, &v.Address, &v.Capacity); err != nil {
			return nil, classify("scan venue", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list venues", err)
	}
	return out, nil
}
