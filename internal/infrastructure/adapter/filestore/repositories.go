package filestore

import (
	"context"
	"sort"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/persistence"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) GetOrCreate(ctx context.Context, token string) (*entity.User, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	if su, ok := t.doc.Users[token]; ok {
		return entity.RestoreUser(token, su.Saldo, su.SpinCount, deref(su.CreatedAt), deref(su.UpdatedAt)), nil
	}

	user, err := entity.NewUser(token, r.store.timeProvider)
	if err != nil {
		return nil, err
	}
	t.doc.Users[token] = toSnapshotUser(user)
	t.dirty = true
	return user, nil
}

func (r *userRepository) Save(ctx context.Context, user *entity.User) error {
	t, err := r.store.current(ctx)
	if err != nil {
		return err
	}
	t.doc.Users[user.Token] = toSnapshotUser(user)
	t.dirty = true
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(t.doc.Users))
	for token := range t.doc.Users {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	users := make([]*entity.User, 0, len(tokens))
	for _, token := range tokens {
		su := t.doc.Users[token]
		users = append(users, entity.RestoreUser(token, su.Saldo, su.SpinCount, deref(su.CreatedAt), deref(su.UpdatedAt)))
	}
	return users, nil
}

type codeRepository struct {
	store *Store
}

// index maps normalized codes to their position; documents written by older versions may hold
// codes in any case. The first entry wins when two legacy codes normalize to the same value.
func (r *codeRepository) index(t *tx) map[string]int {
	if t.codeIndex == nil {
		t.codeIndex = make(map[string]int, len(t.doc.Codes))
		for i, c := range t.doc.Codes {
			key := entity.NormalizeCode(c.Code)
			if _, seen := t.codeIndex[key]; !seen {
				t.codeIndex[key] = i
			}
		}
	}
	return t.codeIndex
}

func (r *codeRepository) GetForUpdate(ctx context.Context, code string) (*entity.RedemptionCode, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	i, ok := r.index(t)[entity.NormalizeCode(code)]
	if !ok {
		return nil, errs.ErrCodeNotFound
	}
	return fromSnapshotCode(t.doc.Codes[i]), nil
}

func (r *codeRepository) Create(ctx context.Context, code *entity.RedemptionCode) error {
	t, err := r.store.current(ctx)
	if err != nil {
		return err
	}

	idx := r.index(t)
	key := entity.NormalizeCode(code.Code)
	if _, exists := idx[key]; exists {
		return errs.ErrDuplicateCode
	}

	t.doc.Codes = append(t.doc.Codes, toSnapshotCode(code))
	idx[key] = len(t.doc.Codes) - 1
	t.dirty = true
	return nil
}

func (r *codeRepository) Save(ctx context.Context, code *entity.RedemptionCode) error {
	t, err := r.store.current(ctx)
	if err != nil {
		return err
	}

	i, ok := r.index(t)[entity.NormalizeCode(code.Code)]
	if !ok {
		return errs.ErrCodeNotFound
	}

	stored := t.doc.Codes[i]
	updated := toSnapshotCode(code)
	updated.Code = stored.Code
	t.doc.Codes[i] = updated
	t.dirty = true
	return nil
}

func (r *codeRepository) List(ctx context.Context) ([]*entity.RedemptionCode, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]*entity.RedemptionCode, 0, len(t.doc.Codes))
	for _, c := range t.doc.Codes {
		codes = append(codes, fromSnapshotCode(c))
	}
	return codes, nil
}

type counterRepository struct {
	store *Store
}

func (r *counterRepository) Next(ctx context.Context) (uint64, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return 0, err
	}
	t.doc.Spins++
	t.dirty = true
	return t.doc.Spins, nil
}

func (r *counterRepository) Current(ctx context.Context) (uint64, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return 0, err
	}
	return t.doc.Spins, nil
}

func (r *counterRepository) AdvanceTo(ctx context.Context, value uint64) error {
	t, err := r.store.current(ctx)
	if err != nil {
		return err
	}
	if value > t.doc.Spins {
		t.doc.Spins = value
		t.dirty = true
	}
	return nil
}

type spinRepository struct {
	store *Store
}

func (r *spinRepository) Append(ctx context.Context, spin *entity.Spin) error {
	t, err := r.store.current(ctx)
	if err != nil {
		return err
	}
	t.doc.History = append(t.doc.History, persistence.SnapshotSpin{
		ID:        spin.SequenceID,
		User:      spin.UserToken,
		Prize:     spin.PrizeName,
		CreatedAt: spin.CreatedAt,
	})
	t.dirty = true
	return nil
}

func (r *spinRepository) ListByUser(ctx context.Context, token string, limit int) ([]*entity.Spin, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	var spins []*entity.Spin
	for i := len(t.doc.History) - 1; i >= 0 && len(spins) < limit; i-- {
		if sp := t.doc.History[i]; sp.User == token {
			spins = append(spins, fromSnapshotSpin(sp))
		}
	}
	return spins, nil
}

func (r *spinRepository) List(ctx context.Context) ([]*entity.Spin, error) {
	t, err := r.store.current(ctx)
	if err != nil {
		return nil, err
	}

	spins := make([]*entity.Spin, 0, len(t.doc.History))
	for _, sp := range t.doc.History {
		spins = append(spins, fromSnapshotSpin(sp))
	}
	sort.Slice(spins, func(i, j int) bool { return spins[i].SequenceID < spins[j].SequenceID })
	return spins, nil
}
