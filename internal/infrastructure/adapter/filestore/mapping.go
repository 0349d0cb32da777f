package filestore

import (
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
)

func toSnapshotUser(u *entity.User) persistence.SnapshotUser {
	return persistence.SnapshotUser{
		Saldo:     u.Balance(),
		SpinCount: u.SpinCount,
		CreatedAt: ptr(u.CreatedAt),
		UpdatedAt: ptr(u.UpdatedAt),
	}
}

func toSnapshotCode(c *entity.RedemptionCode) persistence.SnapshotCode {
	return persistence.SnapshotCode{
		Code:      c.Code,
		Amount:    c.Amount,
		Used:      c.Used,
		UsedBy:    c.UsedBy,
		UsedAt:    c.UsedAt,
		CreatedAt: ptr(c.CreatedAt),
	}
}

func fromSnapshotCode(c persistence.SnapshotCode) *entity.RedemptionCode {
	return &entity.RedemptionCode{
		Code:      entity.NormalizeCode(c.Code),
		Amount:    c.Amount,
		Used:      c.Used,
		UsedBy:    c.UsedBy,
		UsedAt:    c.UsedAt,
		CreatedAt: deref(c.CreatedAt),
	}
}

func fromSnapshotSpin(sp persistence.SnapshotSpin) *entity.Spin {
	return &entity.Spin{
		SequenceID: sp.ID,
		UserToken:  sp.User,
		PrizeName:  sp.Prize,
		CreatedAt:  sp.CreatedAt,
	}
}

func ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
