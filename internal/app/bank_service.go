package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"hotseat-quiz/internal/domain"
)

// ImportedSuffix is appended to an imported bank's name under the rename policy.
// Later renames of the same name are numbered: "Name (imported 2)".
const ImportedSuffix = " (imported)"

// BankStore persists the custom bank list as a single record. The built-in bank is never stored.
type BankStore interface {
	LoadCustomBanks(ctx context.Context) ([]domain.QuestionBank, error)
	SaveCustomBanks(ctx context.Context, banks []domain.QuestionBank) error
}

// ConflictResolver is asked for a policy when an imported bank name is already taken.
type ConflictResolver interface {
	ResolveConflict(ctx context.Context, name string) (domain.ConflictPolicy, error)
}

// ConflictResolverFunc adapts a function to ConflictResolver.
type ConflictResolverFunc func(ctx context.Context, name string) (domain.ConflictPolicy, error)

func (f ConflictResolverFunc) ResolveConflict(ctx context.Context, name string) (domain.ConflictPolicy, error) {
	return f(ctx, name)
}

// FixedPolicy always answers with the same policy.
func FixedPolicy(policy domain.ConflictPolicy) ConflictResolver {
	return ConflictResolverFunc(func(context.Context, string) (domain.ConflictPolicy, error) {
		return policy, nil
	})
}

// PendingImport is a validated import waiting to be committed.
type PendingImport struct {
	Bank     domain.QuestionBank
	Conflict bool
}

// BankService owns the built-in bank and all custom banks.
type BankService struct {
	store   BankStore
	builtin domain.QuestionBank
	now     func() time.Time

	mu     sync.RWMutex
	custom []domain.QuestionBank

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankService(store BankStore) *BankService {
	return NewBankServiceWithClock(store, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewBankServiceWithClock allows deterministic timestamps and shuffles in tests.
func NewBankServiceWithClock(store BankStore, now func() time.Time, rnd *rand.Rand) *BankService {
	return &BankService{
		store:   store,
		builtin: domain.BuiltinBank(),
		now:     now,
		rnd:     rnd,
	}
}

// Load hydrates custom banks from the store. A failing store leaves the repository with no custom banks.
func (s *BankService) Load(ctx context.Context) error {
	banks, err := s.store.LoadCustomBanks(ctx)
	if err != nil {
		log.Printf("load custom banks: %v", err)
		return err
	}
	custom := make([]domain.QuestionBank, 0, len(banks))
	for _, b := range banks {
		if b.ID == domain.BuiltinBankID {
			continue
		}
		b.Kind = domain.BankCustom
		custom = append(custom, b)
	}
	s.mu.Lock()
	s.custom = custom
	s.mu.Unlock()
	return nil
}

// ListAll returns the built-in bank followed by custom banks in ascending creation order.
func (s *BankService) ListAll() []domain.QuestionBank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *BankService) listLocked() []domain.QuestionBank {
	custom := make([]domain.QuestionBank, len(s.custom))
	copy(custom, s.custom)
	sort.SliceStable(custom, func(i, j int) bool {
		return custom[i].CreatedAt.Before(custom[j].CreatedAt)
	})
	return append([]domain.QuestionBank{s.builtin}, custom...)
}

// Bank looks up a single bank by id.
func (s *BankService) Bank(bankID string) (domain.QuestionBank, bool) {
	if bankID == domain.BuiltinBankID {
		return s.builtin, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(bankID); i >= 0 {
		return s.custom[i], true
	}
	return domain.QuestionBank{}, false
}

// Create appends an empty custom bank.
func (s *BankService) Create(ctx context.Context, name string) (domain.QuestionBank, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.QuestionBank{}, domain.Invalid("name", "bank name must not be empty")
	}
	bank := domain.QuestionBank{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      domain.BankCustom,
		Questions: []domain.Question{},
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom = append(s.cloneLocked(), bank)
	s.persistLocked(ctx)
	return bank, nil
}

// AddQuestion appends a new question to a custom bank.
func (s *BankService) AddQuestion(ctx context.Context, bankID string, draft domain.QuestionDraft) (domain.Question, error) {
	if bankID == domain.BuiltinBankID {
		return domain.Question{}, domain.ErrBuiltinReadOnly
	}
	options := make([]domain.Option, len(draft.Options))
	for i, o := range draft.Options {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		options[i] = o
	}
	question := domain.Question{
		ID:              uuid.NewString(),
		Text:            draft.Text,
		Options:         options,
		CorrectOptionID: draft.CorrectOptionID,
	}
	if err := ValidateQuestion(question); err != nil {
		return domain.Question{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(bankID)
	if i < 0 {
		return domain.Question{}, domain.ErrBankNotFound
	}
	banks := s.cloneLocked()
	bank := banks[i]
	bank.Questions = append(append([]domain.Question{}, bank.Questions...), question)
	banks[i] = bank
	s.custom = banks
	s.persistLocked(ctx)
	return question, nil
}

// UpdateQuestion merges patch into an existing question. Unknown banks or questions are ignored.
func (s *BankService) UpdateQuestion(ctx context.Context, bankID, questionID string, patch domain.QuestionPatch) error {
	if bankID == domain.BuiltinBankID {
		return domain.ErrBuiltinReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(bankID)
	if i < 0 {
		return nil
	}
	questions := append([]domain.Question{}, s.custom[i].Questions...)
	for qi, q := range questions {
		if q.ID != questionID {
			continue
		}
		if patch.Text != nil {
			q.Text = *patch.Text
		}
		if patch.Options != nil {
			q.Options = append([]domain.Option{}, patch.Options...)
		}
		if patch.CorrectOptionID != nil {
			q.CorrectOptionID = *patch.CorrectOptionID
		}
		if err := ValidateQuestion(q); err != nil {
			return err
		}
		questions[qi] = q

		banks := s.cloneLocked()
		banks[i].Questions = questions
		s.custom = banks
		s.persistLocked(ctx)
		return nil
	}
	return nil
}

// DeleteQuestion removes a question by id; absent ids are a no-op.
func (s *BankService) DeleteQuestion(ctx context.Context, bankID, questionID string) error {
	if bankID == domain.BuiltinBankID {
		return domain.ErrBuiltinReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(bankID)
	if i < 0 {
		return nil
	}
	kept := make([]domain.Question, 0, len(s.custom[i].Questions))
	for _, q := range s.custom[i].Questions {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(s.custom[i].Questions) {
		return nil
	}
	banks := s.cloneLocked()
	banks[i].Questions = kept
	s.custom = banks
	s.persistLocked(ctx)
	return nil
}

// Delete removes a custom bank; absent ids are a no-op.
func (s *BankService) Delete(ctx context.Context, bankID string) error {
	if bankID == domain.BuiltinBankID {
		return domain.ErrBuiltinReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(bankID) < 0 {
		return nil
	}
	s.custom = s.withoutLocked(func(b domain.QuestionBank) bool { return b.ID == bankID })
	s.persistLocked(ctx)
	return nil
}

// MergeQuestions collects the questions of the given banks and returns them shuffled.
func (s *BankService) MergeQuestions(bankIDs []string) []domain.Question {
	banks := s.ListAll()
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return MergeQuestions(banks, bankIDs, s.rnd)
}

// ExportOne renders a bank as an export document and its download file name.
func (s *BankService) ExportOne(bankID string) (string, []byte, error) {
	bank, ok := s.Bank(bankID)
	if !ok {
		return "", nil, domain.ErrBankNotFound
	}
	data, err := EncodeDocument(ToExportSchema(bank))
	if err != nil {
		return "", nil, err
	}
	return ExportFileName(bank.Name), data, nil
}

// PrepareImport parses, validates and converts a document without touching the repository.
func (s *BankService) PrepareImport(data []byte) (PendingImport, error) {
	schema, err := DecodeDocument(data)
	if err != nil {
		return PendingImport{}, err
	}
	bank := ToInternalBank(schema)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return PendingImport{Bank: bank, Conflict: s.nameIndexLocked(bank.Name) >= 0}, nil
}

// CommitImport inserts a prepared bank, applying policy if its name is taken at commit time.
// An empty policy on a conflict returns domain.ErrNameConflict.
func (s *BankService) CommitImport(ctx context.Context, pending PendingImport, policy domain.ConflictPolicy) (domain.QuestionBank, error) {
	bank := pending.Bank
	bank.ID = uuid.NewString()
	bank.Kind = domain.BankCustom
	bank.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	banks := s.cloneLocked()
	if s.nameIndexLocked(bank.Name) >= 0 {
		switch policy {
		case domain.ConflictCancel:
			return domain.QuestionBank{}, domain.ErrImportCancelled
		case domain.ConflictOverwrite:
			banks = s.withoutLocked(func(b domain.QuestionBank) bool { return strings.TrimSpace(b.Name) == bank.Name })
		case domain.ConflictRename:
			bank.Name = s.freeNameLocked(bank.Name)
		case "":
			return domain.QuestionBank{}, domain.ErrNameConflict
		default:
			return domain.QuestionBank{}, domain.Invalid("policy", "unknown conflict policy %q", policy)
		}
	}
	s.custom = append(banks, bank)
	s.persistLocked(ctx)
	return bank, nil
}

// ImportOne validates data and commits it, asking resolver only when the name conflicts.
func (s *BankService) ImportOne(ctx context.Context, data []byte, resolver ConflictResolver) (domain.QuestionBank, error) {
	pending, err := s.PrepareImport(data)
	if err != nil {
		return domain.QuestionBank{}, err
	}
	var policy domain.ConflictPolicy
	if pending.Conflict {
		if resolver == nil {
			return domain.QuestionBank{}, domain.ErrNameConflict
		}
		policy, err = resolver.ResolveConflict(ctx, pending.Bank.Name)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if policy == domain.ConflictCancel {
			return domain.QuestionBank{}, domain.ErrImportCancelled
		}
	}
	bank, err := s.CommitImport(ctx, pending, policy)
	if errors.Is(err, domain.ErrNameConflict) && resolver != nil {
		// the conflicting bank appeared after PrepareImport
		if policy, err = resolver.ResolveConflict(ctx, pending.Bank.Name); err != nil {
			return domain.QuestionBank{}, err
		}
		return s.CommitImport(ctx, pending, policy)
	}
	return bank, err
}

// ValidateQuestion checks the question invariant: non-empty text, 2..4 options with unique ids,
// and a correct option id that matches one of them.
func ValidateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return domain.Invalid("text", "question text must not be empty")
	}
	if len(q.Options) < domain.MinOptions || len(q.Options) > domain.MaxOptions {
		return domain.Invalid("options", "must have %d to %d options", domain.MinOptions, domain.MaxOptions)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if o.ID == "" {
			return domain.Invalid("options", "option id must not be empty")
		}
		if _, dup := seen[o.ID]; dup {
			return domain.Invalid("options", "duplicate option id %q", o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	if _, ok := seen[q.CorrectOptionID]; !ok {
		return domain.Invalid("correctOptionId", "correct option must be one of the options")
	}
	return nil
}

func (s *BankService) indexLocked(bankID string) int {
	for i := range s.custom {
		if s.custom[i].ID == bankID {
			return i
		}
	}
	return -1
}

func (s *BankService) nameIndexLocked(name string) int {
	name = strings.TrimSpace(name)
	for i := range s.custom {
		if strings.TrimSpace(s.custom[i].Name) == name {
			return i
		}
	}
	return -1
}

// freeNameLocked appends ImportedSuffix to name, numbering it when that name is taken as well.
func (s *BankService) freeNameLocked(name string) string {
	candidate := name + ImportedSuffix
	for n := 2; s.nameIndexLocked(candidate) >= 0; n++ {
		candidate = fmt.Sprintf("%s (imported %d)", name, n)
	}
	return candidate
}

func (s *BankService) cloneLocked() []domain.QuestionBank {
	banks := make([]domain.QuestionBank, len(s.custom), len(s.custom)+1)
	copy(banks, s.custom)
	return banks
}

func (s *BankService) withoutLocked(drop func(domain.QuestionBank) bool) []domain.QuestionBank {
	banks := make([]domain.QuestionBank, 0, len(s.custom))
	for _, b := range s.custom {
		if !drop(b) {
			banks = append(banks, b)
		}
	}
	return banks
}

// persistLocked writes the custom list; failures are logged and do not undo the mutation.
func (s *BankService) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveCustomBanks(ctx, s.cloneLocked()); err != nil {
		log.Printf("persist custom banks: %v", err)
	}
}
