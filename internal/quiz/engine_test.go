package quiz

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

/* ---------------- In-memory fake that satisfies SessionStore ---------------- */

type fakeStore struct {
	sessions map[string]TestSession
	answers  []TestAnswer

	createSessionErr  error
	createAnswerErr   error
	failAnswerAfter   int // fail the Nth CreateAnswer call (1-based), 0 = never
	createAnswerCalls int
	finalizeErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]TestSession{}}
}

func (f *fakeStore) CreateSession(_ context.Context, s TestSession) (TestSession, error) {
	if f.createSessionErr != nil {
		return TestSession{}, f.createSessionErr
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) CreateAnswer(_ context.Context, a TestAnswer) (TestAnswer, error) {
	f.createAnswerCalls++
	if f.createAnswerErr != nil {
		return TestAnswer{}, f.createAnswerErr
	}
	if f.failAnswerAfter > 0 && f.createAnswerCalls >= f.failAnswerAfter {
		return TestAnswer{}, errors.New("network error")
	}
	f.answers = append(f.answers, a)
	return a, nil
}

func (f *fakeStore) FinalizeSession(_ context.Context, id string, correct int, score float64, completedAt time.Time) (TestSession, error) {
	if f.finalizeErr != nil {
		return TestSession{}, f.finalizeErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return TestSession{}, errors.New("session not found")
	}
	s.Completed = true
	s.CorrectAnswers = correct
	s.ScorePercentage = score
	s.CompletedAt = &completedAt
	f.sessions[id] = s
	return s, nil
}

func testBank() []Question {
	return []Question{
		{ID: "q1", Stem: "s1", Options: []string{"A", "B", "C"}, Answer: []string{"B"}, Topic: "Fall Protection"},
		{ID: "q2", Stem: "s2", Options: []string{"A", "B", "C"}, Answer: []string{"A", "C"}, Topic: "Fall Protection"},
		{ID: "q3", Stem: "s3", Options: []string{"A", "B"}, Answer: []string{"A"}, Topic: "PPE"},
		{ID: "q4", Stem: "s4", Options: []string{"A", "B", "C", "D"}, Answer: []string{"D"}, Topic: "PPE"},
		{ID: "q5", Stem: "s5", Options: []string{"A", "B"}, Answer: []string{"B"}, Topic: "Hazards"},
	}
}

func newTestEngine(store SessionStore) *Engine {
	return NewEngine(store,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)
}

/* ------------------------------------ Tests ------------------------------------ */

func TestStart_EmptyPool(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)

	_, err := e.Start(context.Background(), "u1", ModeExam, "", nil)
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
	if len(st.sessions) != 0 {
		t.Fatal("no TestSession should be created for an empty pool")
	}
	if e.State() != StateNotStarted {
		t.Fatal("engine should stay NotStarted")
	}

	_, err = e.Start(context.Background(), "u1", ModePractice, "Nonexistent Topic", testBank())
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool for unmatched topic, got %v", err)
	}
}

func TestStart_PracticeFiltersByTopic(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)

	s, err := e.Start(context.Background(), "u1", ModePractice, "PPE", testBank())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalQuestions != 2 {
		t.Fatalf("expected pool of 2 PPE questions, got %d", s.TotalQuestions)
	}
	if s.Mode != ModePractice || s.Topic != "PPE" {
		t.Fatalf("session misrecorded: %+v", s)
	}
	if s.Completed || s.CorrectAnswers != 0 || s.ScorePercentage != 0 {
		t.Fatalf("counters should start zeroed: %+v", s)
	}
	for _, q := range e.Questions() {
		if q.Topic != "PPE" {
			t.Fatalf("pool contains off-topic question %q", q.ID)
		}
	}
}

func TestStart_ExamUsesWholeBankAndShuffles(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)

	s, err := e.Start(context.Background(), "u1", ModeExam, "ignored", testBank())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Topic != TopicAll {
		t.Fatalf("exam topic should be %q, got %q", TopicAll, s.Topic)
	}
	if s.TotalQuestions != 5 {
		t.Fatalf("expected 5 questions, got %d", s.TotalQuestions)
	}

	// Same multiset of question IDs, option multisets intact per question.
	seen := map[string]Question{}
	for _, q := range e.Questions() {
		seen[q.ID] = q
	}
	for _, want := range testBank() {
		got, ok := seen[want.ID]
		if !ok {
			t.Fatalf("question %q missing after shuffle", want.ID)
		}
		if len(got.Options) != len(want.Options) {
			t.Fatalf("question %q lost options: %v", want.ID, got.Options)
		}
		if !IsCorrect(got.Options, want.Options) {
			t.Fatalf("question %q options changed: %v vs %v", want.ID, got.Options, want.Options)
		}
	}
}

func TestPractice_FullRunAllCorrect(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)

	s, err := e.Start(context.Background(), "u1", ModePractice, "Fall Protection", testBank())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.TotalQuestions != 2 {
		t.Fatalf("expected 2 questions, got %d", s.TotalQuestions)
	}

	for i := 0; i < s.TotalQuestions; i++ {
		q, err := e.Current()
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		res, err := e.SubmitAnswer(context.Background(), q.ID, q.Answer)
		if err != nil {
			t.Fatalf("submit %q: %v", q.ID, err)
		}
		if !res.Correct {
			t.Fatalf("correct answer graded wrong for %q", q.ID)
		}
		if i < s.TotalQuestions-1 {
			if err := e.Advance(); err != nil {
				t.Fatalf("advance: %v", err)
			}
		}
	}

	final, err := e.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !final.Completed {
		t.Fatal("session not marked completed")
	}
	if final.CorrectAnswers != 2 || final.ScorePercentage != 100.0 {
		t.Fatalf("expected 2/2 at 100%%, got %d at %v", final.CorrectAnswers, final.ScorePercentage)
	}
	if final.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if len(st.answers) != 2 {
		t.Fatalf("expected 2 persisted answers, got %d", len(st.answers))
	}
	if e.State() != StateCompleted {
		t.Fatal("engine should be Completed")
	}
}

func TestPractice_GatesAdvanceUntilSubmitted(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)
	if _, err := e.Start(context.Background(), "u1", ModePractice, "PPE", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := e.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("advance before submit should fail, got %v", err)
	}

	q, _ := e.Current()
	if _, err := e.SubmitAnswer(context.Background(), q.ID, []string{"A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Advance(); err != nil {
		t.Fatalf("advance after submit: %v", err)
	}

	// Random access is an exam-only affordance.
	if err := e.Navigate(0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("navigate in practice should fail, got %v", err)
	}
}

func TestPractice_SubmitScorePercentage(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)
	if _, err := e.Start(context.Background(), "u1", ModePractice, "Fall Protection", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// First right, second wrong.
	q, _ := e.Current()
	if _, err := e.SubmitAnswer(context.Background(), q.ID, q.Answer); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	q, _ = e.Current()
	res, err := e.SubmitAnswer(context.Background(), q.ID, []string{"nope"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct {
		t.Fatal("wrong answer graded correct")
	}

	final, err := e.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if final.CorrectAnswers != 1 || final.ScorePercentage != 50.0 {
		t.Fatalf("expected 1/2 at 50%%, got %d at %v", final.CorrectAnswers, final.ScorePercentage)
	}
	if final.CorrectAnswers > final.TotalQuestions {
		t.Fatal("correct_answers exceeds total_questions")
	}
}

func TestExam_SelectionsRevisableAndGradedAtFinish(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)
	if _, err := e.Start(context.Background(), "u1", ModeExam, "", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// SubmitAnswer is the practice path only.
	if _, err := e.SubmitAnswer(context.Background(), "q1", []string{"B"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("exam SubmitAnswer should fail, got %v", err)
	}

	// Finish before everything is answered must fail loudly.
	if _, err := e.Finish(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("early finish should fail, got %v", err)
	}

	answers := map[string][]string{
		"q1": {"B"},
		"q2": {"C", "A"}, // order-independent
		"q3": {"B"},      // wrong
		"q4": {"D"},
		"q5": {"B"},
	}
	// Pick a wrong answer first, then revise: only the last selection counts.
	if err := e.Select("q1", []string{"A"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	for id, sel := range answers {
		if err := e.Select(id, sel); err != nil {
			t.Fatalf("select %q: %v", id, err)
		}
	}
	if e.AnsweredCount() != 5 {
		t.Fatalf("expected 5 answered, got %d", e.AnsweredCount())
	}
	if err := e.Navigate(3); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	if len(st.answers) != 0 {
		t.Fatal("exam answers must not be persisted before finish")
	}

	final, err := e.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if final.CorrectAnswers != 4 {
		t.Fatalf("expected 4 correct, got %d", final.CorrectAnswers)
	}
	if final.ScorePercentage != 80.0 {
		t.Fatalf("expected 80%%, got %v", final.ScorePercentage)
	}
	if len(st.answers) != 5 {
		t.Fatalf("expected 5 persisted answers, got %d", len(st.answers))
	}

	// Answers are written in presentation order, before the session update.
	for i, q := range e.Questions() {
		if st.answers[i].QuestionID != q.ID {
			t.Fatalf("answer %d out of order: got %q want %q", i, st.answers[i].QuestionID, q.ID)
		}
	}
}

func TestExam_PartialWriteLeavesSessionUnfinalized(t *testing.T) {
	st := newFakeStore()
	st.failAnswerAfter = 3
	e := newTestEngine(st)
	if _, err := e.Start(context.Background(), "u1", ModeExam, "", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range e.Questions() {
		if err := e.Select(q.ID, q.Answer); err != nil {
			t.Fatalf("select: %v", err)
		}
	}

	if _, err := e.Finish(context.Background()); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(st.answers) != 2 {
		t.Fatalf("expected 2 committed answers before the failure, got %d", len(st.answers))
	}
	s := st.sessions[e.Session().ID]
	if s.Completed {
		t.Fatal("session must stay un-finalized after partial write")
	}
	if e.State() != StateInProgress {
		t.Fatal("engine should remain InProgress for manual retry")
	}
}

func TestInvalidStateTransitions(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)

	// Before start.
	if _, err := e.SubmitAnswer(context.Background(), "q1", nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("submit before start should fail, got %v", err)
	}
	if _, err := e.Finish(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("finish before start should fail, got %v", err)
	}

	// After completion.
	if _, err := e.Start(context.Background(), "u1", ModePractice, "Hazards", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}
	q, _ := e.Current()
	if _, err := e.SubmitAnswer(context.Background(), q.ID, q.Answer); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := e.Finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := e.SubmitAnswer(context.Background(), q.ID, q.Answer); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("submit after finish should fail, got %v", err)
	}
	if _, err := e.Finish(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double finish should fail, got %v", err)
	}
	if _, err := e.Start(context.Background(), "u1", ModePractice, "Hazards", testBank()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("restarting a finished engine should fail, got %v", err)
	}
}

func TestPractice_AnswerRecordSnapshot(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st)
	if _, err := e.Start(context.Background(), "u1", ModePractice, "Hazards", testBank()); err != nil {
		t.Fatalf("start: %v", err)
	}
	q, _ := e.Current()
	if _, err := e.SubmitAnswer(context.Background(), q.ID, []string{"A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	a := st.answers[0]
	if a.SessionID != e.Session().ID || a.QuestionID != q.ID {
		t.Fatalf("answer keys wrong: %+v", a)
	}
	if a.QuestionStem != q.Stem || a.Topic != q.Topic {
		t.Fatalf("denormalized snapshot missing: %+v", a)
	}
	if !IsCorrect(a.CorrectAnswer, q.Answer) {
		t.Fatalf("correct answer snapshot wrong: %v", a.CorrectAnswer)
	}
	if a.IsCorrect {
		t.Fatal("wrong answer stored as correct")
	}
}
