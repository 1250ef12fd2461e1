package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/safecert/whitecard-trainer/internal/quiz"
)

// SQLStore implements the store interfaces over database/sql. Works with
// both the sqlite and pgx drivers; placeholders use the $N form, which
// both accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

/* ---------------- questions ---------------- */

func (s *SQLStore) ListQuestions(ctx context.Context) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,stem,options_json,answer_json,explanation_correct,topic,created_at
		 FROM questions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, persistErr("list questions", err)
	}
	defer rows.Close()

	var out []quiz.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, persistErr("list questions", err)
		}
		out = append(out, q)
	}
	return out, persistErr("list questions", rows.Err())
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,stem,options_json,answer_json,explanation_correct,topic,created_at
		 FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Question{}, ErrNotFound
	}
	if err != nil {
		return quiz.Question{}, persistErr("get question", err)
	}
	return q, nil
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return quiz.Question{}, persistErr("create question", err)
	}
	aj, err := json.Marshal(q.Answer)
	if err != nil {
		return quiz.Question{}, persistErr("create question", err)
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id,stem,options_json,answer_json,explanation_correct,topic,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.Stem, string(oj), string(aj), q.ExplanationCorrect, q.Topic, q.CreatedAt)
	if err != nil {
		return quiz.Question{}, persistErr("create question", err)
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return quiz.Question{}, persistErr("update question", err)
	}
	aj, err := json.Marshal(q.Answer)
	if err != nil {
		return quiz.Question{}, persistErr("update question", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET stem=$1, options_json=$2, answer_json=$3, explanation_correct=$4, topic=$5
		 WHERE id=$6`,
		q.Stem, string(oj), string(aj), q.ExplanationCorrect, q.Topic, q.ID)
	if err != nil {
		return quiz.Question{}, persistErr("update question", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.Question{}, ErrNotFound
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return persistErr("delete question", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (quiz.Question, error) {
	var q quiz.Question
	var oj, aj string
	if err := row.Scan(&q.ID, &q.Stem, &oj, &aj, &q.ExplanationCorrect, &q.Topic, &q.CreatedAt); err != nil {
		return quiz.Question{}, err
	}
	if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
		return quiz.Question{}, err
	}
	if err := json.Unmarshal([]byte(aj), &q.Answer); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

/* ---------------- sessions ---------------- */

func (s *SQLStore) CreateSession(ctx context.Context, sess quiz.TestSession) (quiz.TestSession, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_sessions (id,user_id,mode,topic,total_questions,correct_answers,score_percentage,completed,created_at)
		 VALUES ($1,$2,$3,$4,$5,0,0,$6,$7)`,
		sess.ID, sess.UserID, string(sess.Mode), sess.Topic, sess.TotalQuestions, false, sess.CreatedAt.Unix())
	if err != nil {
		return quiz.TestSession{}, persistErr("create session", err)
	}
	return s.GetSession(ctx, sess.ID)
}

// FinalizeSession is the single mutation a session record ever sees after
// creation.
func (s *SQLStore) FinalizeSession(ctx context.Context, id string, correct int, score float64, completedAt time.Time) (quiz.TestSession, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE test_sessions SET completed=$1, correct_answers=$2, score_percentage=$3, completed_at=$4
		 WHERE id=$5`,
		true, correct, score, completedAt.Unix(), id)
	if err != nil {
		return quiz.TestSession{}, persistErr("finalize session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.TestSession{}, ErrNotFound
	}
	return s.GetSession(ctx, id)
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (quiz.TestSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,user_id,mode,topic,total_questions,correct_answers,score_percentage,completed,completed_at,created_at
		 FROM test_sessions WHERE id=$1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.TestSession{}, ErrNotFound
	}
	if err != nil {
		return quiz.TestSession{}, persistErr("get session", err)
	}
	return sess, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, opts SessionListOpts) ([]quiz.TestSession, error) {
	query := `SELECT id,user_id,mode,topic,total_questions,correct_answers,score_percentage,completed,completed_at,created_at
		 FROM test_sessions WHERE user_id=$1`
	if opts.CompletedOnly {
		query += ` AND completed=` + s.boolLit(true) + ` ORDER BY completed_at DESC`
	} else {
		query += ` ORDER BY created_at DESC`
	}
	rows, err := s.db.QueryContext(ctx, query, opts.UserID)
	if err != nil {
		return nil, persistErr("list sessions", err)
	}
	defer rows.Close()

	var out []quiz.TestSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, persistErr("list sessions", err)
		}
		out = append(out, sess)
	}
	return out, persistErr("list sessions", rows.Err())
}

func scanSession(row rowScanner) (quiz.TestSession, error) {
	var sess quiz.TestSession
	var mode string
	var completedAt sql.NullInt64
	var createdAt int64
	err := row.Scan(&sess.ID, &sess.UserID, &mode, &sess.Topic, &sess.TotalQuestions,
		&sess.CorrectAnswers, &sess.ScorePercentage, &sess.Completed, &completedAt, &createdAt)
	if err != nil {
		return quiz.TestSession{}, err
	}
	sess.Mode = quiz.Mode(mode)
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		sess.CompletedAt = &t
	}
	return sess, nil
}

/* ---------------- answers ---------------- */

func (s *SQLStore) CreateAnswer(ctx context.Context, a quiz.TestAnswer) (quiz.TestAnswer, error) {
	sj, err := json.Marshal(stringsOrEmpty(a.SelectedAnswer))
	if err != nil {
		return quiz.TestAnswer{}, persistErr("create answer", err)
	}
	cj, err := json.Marshal(stringsOrEmpty(a.CorrectAnswer))
	if err != nil {
		return quiz.TestAnswer{}, persistErr("create answer", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO test_answers (id,session_id,question_id,question_stem,selected_json,correct_json,is_correct,topic,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.SessionID, a.QuestionID, a.QuestionStem, string(sj), string(cj), a.IsCorrect, a.Topic, a.CreatedAt.Unix())
	if err != nil {
		return quiz.TestAnswer{}, persistErr("create answer", err)
	}
	return a, nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, opts AnswerListOpts) ([]quiz.TestAnswer, error) {
	var rows *sql.Rows
	var err error
	switch {
	case opts.SessionID != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT id,session_id,question_id,question_stem,selected_json,correct_json,is_correct,topic,created_at
			 FROM test_answers WHERE session_id=$1 ORDER BY created_at, id`, opts.SessionID)
	case opts.UserID != "":
		rows, err = s.db.QueryContext(ctx,
			`SELECT a.id,a.session_id,a.question_id,a.question_stem,a.selected_json,a.correct_json,a.is_correct,a.topic,a.created_at
			 FROM test_answers a JOIN test_sessions s ON a.session_id = s.id
			 WHERE s.user_id=$1 ORDER BY a.created_at, a.id`, opts.UserID)
	default:
		return nil, persistErr("list answers", errors.New("session_id or user_id required"))
	}
	if err != nil {
		return nil, persistErr("list answers", err)
	}
	defer rows.Close()

	var out []quiz.TestAnswer
	for rows.Next() {
		var a quiz.TestAnswer
		var sj, cj string
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.QuestionStem, &sj, &cj, &a.IsCorrect, &a.Topic, &createdAt); err != nil {
			return nil, persistErr("list answers", err)
		}
		if err := json.Unmarshal([]byte(sj), &a.SelectedAnswer); err != nil {
			return nil, persistErr("list answers", err)
		}
		if err := json.Unmarshal([]byte(cj), &a.CorrectAnswer); err != nil {
			return nil, persistErr("list answers", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, a)
	}
	return out, persistErr("list answers", rows.Err())
}

/* ---------------- users ---------------- */

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,email,full_name,role,password_hash,created_at FROM users WHERE email=$1`, email)
	var u User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, persistErr("get user", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u User) (User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,email,full_name,role,password_hash,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.FullName, u.Role, u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		return User{}, persistErr("create user", err)
	}
	return u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,email,full_name,role,password_hash,created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, persistErr("list users", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &createdAt); err != nil {
			return nil, persistErr("list users", err)
		}
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, u)
	}
	return out, persistErr("list users", rows.Err())
}

/* ---------------- helpers ---------------- */

// boolLit renders a boolean literal for the active driver; sqlite stores
// booleans as integers.
func (s *SQLStore) boolLit(v bool) string {
	if s.driver == "postgres" {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if v {
		return "1"
	}
	return "0"
}

// stringsOrEmpty keeps JSON columns as [] rather than null.
func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
