package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atknylmz/Urtim-server/internal/repositories"
)

type MembershipPostgreSQL struct {
	db *gorm.DB
}

func NewMembershipPostgreSQL(db *gorm.DB) repositories.MembershipRepository {
	return &MembershipPostgreSQL{db: db}
}

// EnsureMember runs in its own transaction, or a savepoint when db is already
// inside one. The FOR UPDATE lock serializes calls for the same owner; the
// unique key on the log table makes the insert idempotent on its own.
func (m *MembershipPostgreSQL) EnsureMember(ctx context.Context, spec repositories.MembershipSpec, ownerID, memberID int64) (*repositories.MembershipResult, error) {
	owner := clause.Table{Name: spec.OwnerTable}
	array := clause.Column{Name: spec.ArrayColumn}

	result := &repositories.MembershipResult{}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members pq.Int64Array
		row := tx.Raw("SELECT COALESCE(?, '{}'::integer[]) FROM ? WHERE id = ? FOR UPDATE", array, owner, ownerID).Row()
		if err := row.Scan(&members); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repositories.NotFound(spec.OwnerTable, ownerID)
			}
			return fmt.Errorf("failed to lock %s row: %w", spec.OwnerTable, err)
		}

		if !containsID(members, memberID) {
			if err := tx.Exec("UPDATE ? SET ? = array_append(COALESCE(?, '{}'::integer[]), ?) WHERE id = ?",
				owner, array, array, memberID, ownerID).Error; err != nil {
				return fmt.Errorf("failed to append to %s.%s: %w", spec.OwnerTable, spec.ArrayColumn, err)
			}
			members = append(members, memberID)
			result.Added = true
		}

		logged := tx.Exec("INSERT INTO ? (?, ?) VALUES (?, ?) ON CONFLICT (?, ?) DO NOTHING",
			clause.Table{Name: spec.LogTable},
			clause.Column{Name: spec.LogOwnerColumn}, clause.Column{Name: spec.LogMemberColumn},
			ownerID, memberID,
			clause.Column{Name: spec.LogOwnerColumn}, clause.Column{Name: spec.LogMemberColumn})
		if logged.Error != nil {
			return fmt.Errorf("failed to log %s: %w", spec.LogTable, logged.Error)
		}
		result.Logged = logged.RowsAffected > 0

		result.Members = []int64(members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *MembershipPostgreSQL) Members(ctx context.Context, spec repositories.MembershipSpec, ownerID int64) ([]int64, error) {
	var members pq.Int64Array
	row := m.db.WithContext(ctx).Raw("SELECT COALESCE(?, '{}'::integer[]) FROM ? WHERE id = ?",
		clause.Column{Name: spec.ArrayColumn}, clause.Table{Name: spec.OwnerTable}, ownerID).Row()
	if err := row.Scan(&members); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFound(spec.OwnerTable, ownerID)
		}
		return nil, fmt.Errorf("failed to read %s.%s: %w", spec.OwnerTable, spec.ArrayColumn, err)
	}
	if members == nil {
		return []int64{}, nil
	}
	return []int64(members), nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
