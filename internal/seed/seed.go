// Package seed bootstraps demo reference rows for non-production environments.
package seed

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	demoStoreID    = "00000000-0000-0000-0000-000000000001"
	demoGroupID    = "00000000-0000-0000-0000-000000000002"
	demoCampaignID = "22222222-2222-2222-2222-222222222222"
	demoContentID  = "33333333-3333-3333-3333-333333333333"
)

// EnsureDemoCatalog inserts a demo store, device group, campaign and content
// row so a fresh environment can pair a device and accept events immediately.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []struct {
			table string
			query string
			args  []any
		}{
			{
				table: "stores",
				query: `INSERT INTO stores (id, name, created_at) VALUES (?, ?, ?)`,
				args:  []any{demoStoreID, "Demo Store", now},
			},
			{
				table: "device_groups",
				query: `INSERT INTO device_groups (id, name, created_at) VALUES (?, ?, ?)`,
				args:  []any{demoGroupID, "Demo Group", now},
			},
			{
				table: "campaigns",
				query: `INSERT INTO campaigns (id, brand_name, name, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				args:  []any{demoCampaignID, "Demo Brand", "Demo Campaign", now, now.AddDate(1, 0, 0), now},
			},
			{
				table: "contents",
				query: `INSERT INTO contents (id, name, type, created_at) VALUES (?, ?, ?, ?)`,
				args:  []any{demoContentID, "Demo Content", "video", now},
			},
		}

		for _, row := range rows {
			var count int64
			if err := tx.WithContext(ctx).Table(row.table).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.WithContext(ctx).Exec(row.query, row.args...).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
