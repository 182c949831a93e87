package invoice

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
	"invoicer/internal/core/numerator"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
	"invoicer/internal/domain/company"
	"invoicer/internal/domain/numbering"
)

// --- fakes ---

type memRepo struct {
	mu        sync.Mutex
	invoices  map[id.ID]*Invoice
	lines     map[id.ID][]LineItem
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{invoices: map[id.ID]*Invoice{}, lines: map[id.ID][]LineItem{}}
}

func (r *memRepo) Create(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.invoices {
		if e.CompanyID == inv.CompanyID && e.Number == inv.Number {
			return apperror.NewAllocationConflict(inv.Number)
		}
	}
	cp := *inv
	cp.LineItems = nil
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, companyID, invoiceID id.ID) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok || inv.CompanyID != companyID {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	cp := *inv
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.invoices[inv.ID]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	if cur.Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}
	cp := *inv
	cp.Version++
	cp.LineItems = nil
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, companyID, invoiceID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.invoices, invoiceID)
	delete(r.lines, invoiceID)
	return nil
}

func (r *memRepo) List(_ context.Context, companyID id.ID, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Invoice
	q := strings.ToLower(filter.Search)
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(inv.Client.Name), q) && !strings.Contains(strings.ToLower(inv.Number), q) {
			continue
		}
		items = append(items, inv)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })
	return domain.ListResult[*Invoice]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit}, nil
}

func (r *memRepo) GetLines(_ context.Context, invoiceID id.ID) ([]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LineItem(nil), r.lines[invoiceID]...), nil
}

func (r *memRepo) SaveLines(_ context.Context, invoiceID id.ID, lines []LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[invoiceID] = append([]LineItem(nil), lines...)
	return nil
}

func (r *memRepo) ListNumbers(_ context.Context, companyID, stem string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, inv := range r.invoices {
		if inv.CompanyID.String() == companyID && strings.HasPrefix(inv.Number, stem+"-") {
			out = append(out, inv.Number)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	company     *company.Company
	departments []company.Department
}

func (d *fakeDirectory) Get(_ context.Context, companyID id.ID) (*company.Company, error) {
	if d.company == nil || d.company.ID != companyID {
		return nil, apperror.NewNotFound("company", companyID)
	}
	return d.company, nil
}

func (d *fakeDirectory) ListDepartments(_ context.Context, _ id.ID) ([]company.Department, error) {
	return d.departments, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type stubRenderer struct {
	issuer Issuer
	err    error
}

func (r *stubRenderer) Render(_ context.Context, inv *Invoice, issuer Issuer) (*Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.issuer = issuer
	return &Document{Data: []byte("%PDF-"), Filename: inv.Filename(), ContentType: "application/pdf"}, nil
}

// --- fixture ---

type fixture struct {
	svc       *Service
	repo      *memRepo
	dir       *fakeDirectory
	events    *recordingPublisher
	renderer  *stubRenderer
	companyID id.ID
}

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	c := company.New("Acme Robotics", "billing@acme.test")
	c.ID = id.New()
	c.Address = "12 MG Road"

	repo := newMemRepo()
	dir := &fakeDirectory{
		company: c,
		departments: []company.Department{
			{CompanyID: c.ID, Key: "robotics"},
			{CompanyID: c.ID, Key: "it_arvr", DisplayName: "Acme Labs"},
			{CompanyID: c.ID, Key: "drones", Code: "DRN"},
		},
	}
	events := &recordingPublisher{}
	renderer := &stubRenderer{}

	svc := NewService(Deps{
		Repo:      repo,
		Companies: dir,
		Allocator: numbering.NewAllocator(numerator.StrategyCounter, numerator.NewMemoryCounter(), repo),
		Renderer:  renderer,
		Events:    events,
		TxManager: tx.Passthrough,
	}, cfg)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, repo: repo, dir: dir, events: events, renderer: renderer, companyID: c.ID}
}

func validSubmission(departments ...string) Submission {
	return Submission{
		ClientName:  "Globex",
		ClientEmail: "ap@globex.test",
		Departments: departments,
		Tax:         TaxSelection{CGST: true, SGST: true},
		Lines: RawLines{
			Names:      []string{"Workshop"},
			Quantities: []string{"1"},
			Prices:     []string{"1000"},
		},
	}
}

// --- tests ---

func TestService_CreateAllocatesSequentialNumbers(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	var numbers []string
	for range 3 {
		inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
		require.NoError(t, err)
		numbers = append(numbers, inv.Number)
	}
	assert.Equal(t, []string{"ACM-ROB-001", "ACM-ROB-002", "ACM-ROB-003"}, numbers)

	other, err := f.svc.Create(ctx, f.companyID, validSubmission("it_arvr", "robotics"))
	require.NoError(t, err)
	assert.Equal(t, "ACM-IT-001", other.Number)
	assert.Equal(t, "ACM-IT", other.ScopeKey)
	assert.Equal(t, int64(1), other.Serial)

	custom, err := f.svc.Create(ctx, f.companyID, validSubmission("drones"))
	require.NoError(t, err)
	assert.Equal(t, "ACM-DRN-001", custom.Number)

	unknown, err := f.svc.Create(ctx, f.companyID, validSubmission("marketing"))
	require.NoError(t, err)
	assert.Equal(t, "ACM-GEN-001", unknown.Number)
}

func TestService_CreateComputesTotalsAndDefaults(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := appctx.WithIdentity(context.Background(), &appctx.Identity{Subject: "billing@acme.test", Role: appctx.RoleUser})

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("Robotics", "robotics"))
	require.NoError(t, err)

	assert.Equal(t, []string{"robotics"}, inv.Departments)
	assert.Equal(t, "1000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "180.00", inv.TaxAmount.StringFixed(2))
	assert.Equal(t, "1180.00", inv.FinalTotal.StringFixed(2))
	assert.Equal(t, "2026-03-14", inv.Date.Format(DateLayout))
	assert.Equal(t, "2026-03-21", inv.DueDate.Format(DateLayout))
	assert.Equal(t, "billing@acme.test", inv.CreatedBy)

	stored, err := f.svc.Get(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 1)
	assert.Equal(t, inv.Number, stored.Number)

	assert.Equal(t, []string{EventCreated}, f.events.types())
	assert.Equal(t, "1180.00", f.events.events[0].FinalTotal)
}

func TestService_CreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"no client", func(s *Submission) { s.ClientName = "  " }},
		{"no departments", func(s *Submission) { s.Departments = nil }},
		{"no lines", func(s *Submission) { s.Lines = RawLines{} }},
		{"bad date", func(s *Submission) { s.InvoiceDate = "14/03/2026" }},
		{"due before date", func(s *Submission) { s.InvoiceDate = "2026-03-14"; s.DueDate = "2026-03-01" }},
		{"malformed line", func(s *Submission) { s.Lines.Quantities = []string{"x"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission("robotics")
			tt.mutate(&sub)

			_, err := f.svc.Create(ctx, f.companyID, sub)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	// Rejected submissions never consume a number.
	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)
	assert.Equal(t, "ACM-ROB-001", inv.Number)
	assert.Len(t, f.events.types(), 1)
}

func TestService_CreateContinuesLegacyNumbers(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	legacy := &Invoice{CompanyID: f.companyID, Number: "ACM-ROB-041"}
	legacy.ID = id.New()
	require.NoError(t, f.repo.Create(ctx, legacy))

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)
	assert.Equal(t, "ACM-ROB-042", inv.Number)
}

func TestService_ConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
			if assert.NoError(t, err) {
				numbers <- inv.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["ACM-ROB-020"])
}

func TestService_UpdateKeepsNumber(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)

	sub := validSubmission("it_arvr")
	sub.Tax = TaxSelection{CGST: true}
	sub.Lines = RawLines{Names: []string{"Kit", "Support"}, Quantities: []string{"2", "1"}, Prices: []string{"200", "100"}}

	updated, err := f.svc.Update(ctx, f.companyID, inv.ID, inv.Version, sub)
	require.NoError(t, err)

	assert.Equal(t, "ACM-ROB-001", updated.Number)
	assert.Equal(t, []string{"it_arvr"}, updated.Departments)
	assert.Equal(t, "500.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "45.00", updated.TaxAmount.StringFixed(2))
	assert.Equal(t, "545.00", updated.FinalTotal.StringFixed(2))
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.UpdatedAt)

	stored, err := f.svc.Get(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 2)

	_, err = f.svc.Update(ctx, f.companyID, inv.ID, 1, sub)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))

	assert.Equal(t, []string{EventCreated, EventUpdated}, f.events.types())
}

func TestService_OtherCompanyCannotSeeInvoice(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, id.New(), inv.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	t.Run("missing invoice is not found", func(t *testing.T) {
		_, err := f.svc.Delete(ctx, f.companyID, id.New())
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("storage failure is a soft outcome", func(t *testing.T) {
		inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
		require.NoError(t, err)

		f.repo.deleteErr = errors.New("connection reset")
		out, err := f.svc.Delete(ctx, f.companyID, inv.ID)
		f.repo.deleteErr = nil

		require.NoError(t, err)
		assert.False(t, out.Deleted)
		assert.Contains(t, out.Reason, inv.Number)

		_, err = f.svc.Get(ctx, f.companyID, inv.ID)
		assert.NoError(t, err)
	})

	t.Run("deletes and publishes", func(t *testing.T) {
		inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
		require.NoError(t, err)

		out, err := f.svc.Delete(ctx, f.companyID, inv.ID)
		require.NoError(t, err)
		assert.True(t, out.Deleted)

		_, err = f.svc.Get(ctx, f.companyID, inv.ID)
		assert.True(t, apperror.IsNotFound(err))

		types := f.events.types()
		assert.Equal(t, EventDeleted, types[len(types)-1])
	})
}

func TestService_List(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	for _, name := range []string{"Globex", "Initech", "Globex East"} {
		sub := validSubmission("robotics")
		sub.ClientName = name
		_, err := f.svc.Create(ctx, f.companyID, sub)
		require.NoError(t, err)
	}

	res, err := f.svc.List(ctx, f.companyID, domain.ListFilter{Search: "globex"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, domain.DefaultListFilter().Limit, res.Limit)

	res, err = f.svc.List(ctx, f.companyID, domain.ListFilter{Search: "ROB-002"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Initech", res.Items[0].Client.Name)
}

func TestService_RenderResolvesIssuer(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	rob, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)
	doc, err := f.svc.Render(ctx, f.companyID, rob.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACM-ROB-001.pdf", doc.Filename)
	assert.Equal(t, "Acme Robotics", f.renderer.issuer.DisplayName)
	assert.Equal(t, "12 MG Road", f.renderer.issuer.Address)

	labs, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics", "it_arvr"))
	require.NoError(t, err)
	_, err = f.svc.Render(ctx, f.companyID, labs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", f.renderer.issuer.DisplayName)
}

func TestService_RenderFailureIsRenderingError(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)

	f.renderer.err = errors.New("font table corrupt")
	_, err = f.svc.Render(ctx, f.companyID, inv.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeRendering))
}

func TestService_PreviewNumberReservesNothing(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	next, err := f.svc.PreviewNumber(ctx, f.companyID, []string{"robotics"})
	require.NoError(t, err)
	assert.Equal(t, "ACM-ROB-001", next)

	again, err := f.svc.PreviewNumber(ctx, f.companyID, []string{" Robotics "})
	require.NoError(t, err)
	assert.Equal(t, next, again)

	inv, err := f.svc.Create(ctx, f.companyID, validSubmission("robotics"))
	require.NoError(t, err)
	assert.Equal(t, next, inv.Number)
}

func TestService_PermissivePolicySkipsRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyPermissive
	f := newFixture(t, cfg)

	sub := validSubmission("robotics")
	sub.Lines = RawLines{
		Names:      []string{"Workshop", "Broken"},
		Quantities: []string{"1", "many"},
		Prices:     []string{"1000", "5"},
	}
	inv, err := f.svc.Create(context.Background(), f.companyID, sub)
	require.NoError(t, err)
	assert.Len(t, inv.LineItems, 1)
	assert.Equal(t, "1180.00", inv.FinalTotal.StringFixed(2))
}

func TestService_CreateKeepsZeroQuantityLine(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	sub := validSubmission("robotics")
	sub.Lines = RawLines{
		Names:      []string{"Workshop", "Free sample"},
		Quantities: []string{"1", "0"},
		Prices:     []string{"1000", "0.125"},
	}
	inv, err := f.svc.Create(ctx, f.companyID, sub)
	require.NoError(t, err)
	assert.Equal(t, "1180.00", inv.FinalTotal.StringFixed(2))

	stored, err := f.svc.Get(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, int64(0), stored.LineItems[1].Quantity)
	assert.Equal(t, "0.13", stored.LineItems[1].UnitPrice.StringFixed(2))
	assert.True(t, stored.LineItems[1].Total.IsZero())
}

func TestService_HooksCanVeto(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	veto := apperror.NewValidation("client is blocked")
	f.svc.Hooks().OnBeforeCreate(func(_ context.Context, inv *Invoice) error {
		if inv.Client.Name == "Blocked" {
			return veto
		}
		return nil
	})

	sub := validSubmission("robotics")
	sub.ClientName = "Blocked"
	_, err := f.svc.Create(context.Background(), f.companyID, sub)
	assert.ErrorIs(t, err, veto)
}
