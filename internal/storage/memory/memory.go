// Package memory реализует storage.Storage в памяти процесса.
//
// Один мьютекс защищает все таблицы, поэтому каждая операция хранилища
// выполняется как неделимая секция.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/storage"
)

// Store хранилище в памяти.
type Store struct {
	mu       sync.Mutex
	links    map[string]*model.ShortLink
	domains  map[string]*model.CustomDomain
	hosts    map[string]string
	accounts map[string]*model.Account
}

var _ storage.Storage = (*Store)(nil)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		links:    make(map[string]*model.ShortLink),
		domains:  make(map[string]*model.CustomDomain),
		hosts:    make(map[string]string),
		accounts: make(map[string]*model.Account),
	}
}

func (s *Store) account(ownerID string) *model.Account {
	acc, ok := s.accounts[ownerID]
	if !ok {
		acc = &model.Account{OwnerID: ownerID, Tier: model.TierFree, UpdatedAt: time.Now().UTC()}
		s.accounts[ownerID] = acc
	}
	return acc
}

func (s *Store) countLinks(ownerID string) int64 {
	var n int64
	for _, l := range s.links {
		if l.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func (s *Store) countDomains(ownerID string) int64 {
	var n int64
	for _, d := range s.domains {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// ownsDomain вызывается под s.mu.
func (s *Store) ownsDomain(ownerID, id string) bool {
	d, ok := s.domains[id]
	return ok && d.OwnerID == ownerID
}

func copyLink(l *model.ShortLink) *model.ShortLink {
	c := *l
	if l.CustomDomainID != nil {
		id := *l.CustomDomainID
		c.CustomDomainID = &id
	}
	return &c
}

func (s *Store) CreateLink(_ context.Context, link *model.ShortLink, guard storage.LinkGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if guard != nil {
		acc := s.account(link.OwnerID)
		if err := guard(acc.Tier, s.countLinks(link.OwnerID)); err != nil {
			return err
		}
	}
	if link.CustomDomainID != nil && !s.ownsDomain(link.OwnerID, *link.CustomDomainID) {
		return storage.ErrUnknownDomain
	}
	if _, exists := s.links[link.ShortID]; exists {
		return storage.ErrDuplicateKey
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	s.links[link.ShortID] = copyLink(link)
	return nil
}

func (s *Store) GetLink(_ context.Context, shortID string) (*model.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[shortID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyLink(l), nil
}

func (s *Store) ListLinks(_ context.Context, ownerID string) ([]*model.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*model.ShortLink
	for _, l := range s.links {
		if l.OwnerID == ownerID {
			res = append(res, copyLink(l))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *Store) CountLinks(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLinks(ownerID), nil
}

func (s *Store) UpdateLink(_ context.Context, shortID, ownerID, destination string, customDomainID *string) (*model.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[shortID]
	if !ok || l.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	if customDomainID != nil && *customDomainID != "" && !s.ownsDomain(ownerID, *customDomainID) {
		return nil, storage.ErrUnknownDomain
	}
	l.DestinationURL = destination
	switch {
	case customDomainID == nil:
	case *customDomainID == "":
		l.CustomDomainID = nil
	default:
		id := *customDomainID
		l.CustomDomainID = &id
	}
	return copyLink(l), nil
}

func (s *Store) DeleteLink(_ context.Context, shortID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[shortID]
	if !ok || l.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.links, shortID)
	return nil
}

func (s *Store) ResolveScan(_ context.Context, req model.ScanRequest, limitReached storage.ScanGuard) (model.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[req.ShortID]
	if !ok || (req.DomainID != "" && !l.BoundTo(req.DomainID)) {
		return model.Resolution{Outcome: model.OutcomeNotFound}, nil
	}
	acc := s.account(l.OwnerID)
	if limitReached != nil && limitReached(acc.Tier, acc.MonthlyScans) {
		return model.Resolution{Outcome: model.OutcomeLimitReached, OwnerID: l.OwnerID}, nil
	}
	acc.MonthlyScans++
	acc.UpdatedAt = time.Now().UTC()
	l.ScanCount++
	return model.Resolution{Outcome: model.OutcomeRedirect, Destination: l.DestinationURL, OwnerID: l.OwnerID}, nil
}

func (s *Store) CreateDomain(_ context.Context, d *model.CustomDomain, guard storage.DomainGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if guard != nil {
		acc := s.account(d.OwnerID)
		if err := guard(acc.Tier, s.countDomains(d.OwnerID)); err != nil {
			return err
		}
	}
	if _, taken := s.hosts[d.Domain]; taken {
		return storage.ErrDuplicateKey
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	c := *d
	s.domains[d.ID] = &c
	s.hosts[d.Domain] = d.ID
	return nil
}

func (s *Store) GetDomain(_ context.Context, id string) (*model.CustomDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (s *Store) FindDomainByHost(_ context.Context, host string) (*model.CustomDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.hosts[host]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *s.domains[id]
	return &c, nil
}

func (s *Store) ListDomainStats(_ context.Context, ownerID string) ([]model.DomainStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []model.DomainStats
	for _, d := range s.domains {
		if d.OwnerID != ownerID {
			continue
		}
		st := model.DomainStats{CustomDomain: *d}
		for _, l := range s.links {
			if l.BoundTo(d.ID) {
				st.LinkCount++
				st.TotalScans += l.ScanCount
			}
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *Store) CountDomains(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countDomains(ownerID), nil
}

func (s *Store) DeleteDomain(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok || d.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	for _, l := range s.links {
		if l.BoundTo(id) {
			l.CustomDomainID = nil
		}
	}
	delete(s.hosts, d.Domain)
	delete(s.domains, id)
	return nil
}

func (s *Store) MarkDomainVerified(_ context.Context, id, ownerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok || d.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	return d.MarkVerified(at)
}

func (s *Store) GetAccount(_ context.Context, ownerID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[ownerID]; ok {
		c := *acc
		return &c, nil
	}
	return &model.Account{OwnerID: ownerID, Tier: model.TierFree}, nil
}

func (s *Store) SetTier(_ context.Context, ownerID string, tier model.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(ownerID)
	acc.Tier = tier
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ResetMonthlyScans(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.account(ownerID)
	acc.MonthlyScans = 0
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ResetAllMonthlyScans(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now().UTC()
	for _, acc := range s.accounts {
		if acc.MonthlyScans != 0 {
			acc.MonthlyScans = 0
			acc.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
