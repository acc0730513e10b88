package contacts

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"

	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/models"
)

type fakePersons struct {
	persons map[int64]*models.Person
	updates int
}

func newFakePersons(persons ...models.Person) *fakePersons {
	f := &fakePersons{persons: map[int64]*models.Person{}}
	for i := range persons {
		p := persons[i]
		f.persons[p.ID] = &p
	}
	return f
}

func (f *fakePersons) ListActive(_ context.Context, personType string) ([]models.Person, error) {
	var out []models.Person
	for _, p := range f.persons {
		if !p.IsActive {
			continue
		}
		if personType != "" && string(p.PersonType) != personType {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakePersons) GetForUpdate(_ context.Context, id int64) (*models.Person, error) {
	p, ok := f.persons[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "person %d not found", id)
	}
	cp := *p
	cp.Contacts = models.ContactSet{
		Phones:    append([]string(nil), p.Contacts.Phones...),
		Emails:    append([]string(nil), p.Contacts.Emails...),
		Telegrams: append([]string(nil), p.Contacts.Telegrams...),
	}
	return &cp, nil
}

func (f *fakePersons) UpdateContacts(_ context.Context, id int64, contacts models.ContactSet) error {
	f.updates++
	contacts.Clean()
	f.persons[id].Contacts = contacts
	return nil
}

type fakeProposals struct {
	proposals map[uuid.UUID]*models.ContactAdditionProposal
	order     []uuid.UUID
}

func newFakeProposals() *fakeProposals {
	return &fakeProposals{proposals: map[uuid.UUID]*models.ContactAdditionProposal{}}
}

func (f *fakeProposals) Create(_ context.Context, p *models.ContactAdditionProposal) error {
	for _, existing := range f.proposals {
		if existing.Status == models.ProposalStatusPending && existing.PersonID == p.PersonID &&
			existing.ContactType == p.ContactType && existing.ContactValue == p.ContactValue {
			existing.UpdatedAt = p.UpdatedAt
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	cp := *p
	f.proposals[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakeProposals) Get(_ context.Context, id uuid.UUID) (*models.ContactAdditionProposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "proposal %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProposals) Resolve(_ context.Context, id uuid.UUID, status models.ProposalStatus, reviewer string, at time.Time) (*models.ContactAdditionProposal, error) {
	p := f.proposals[id]
	p.Status = status
	p.ResolvedBy = &reviewer
	p.ResolvedAt = &at
	p.UpdatedAt = at
	cp := *p
	return &cp, nil
}

func (f *fakeProposals) List(_ context.Context, status models.ProposalStatus, _ int) ([]models.ContactAdditionProposal, error) {
	var out []models.ContactAdditionProposal
	for _, id := range f.order {
		if p := f.proposals[id]; status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeMatcher returns the persons whose name equals the query exactly.
type fakeMatcher struct {
	persons     *fakePersons
	lastSubtype string
	calls       int
}

func (f *fakeMatcher) SearchMatches(ctx context.Context, _ models.Category, query map[string]string, opts matching.SearchOptions) ([]models.MatchCandidate, error) {
	f.calls++
	f.lastSubtype = opts.Subtype
	persons, _ := f.persons.ListActive(ctx, opts.Subtype)
	var out []models.MatchCandidate
	for _, p := range persons {
		if p.Name == query["name"] {
			out = append(out, models.MatchCandidate{ID: p.ID, Category: models.CategoryPerson, Score: 1})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type inlineUnitOfWork struct {
	runs int
}

func (u *inlineUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	u.runs++
	return fn(ctx)
}
