package service

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// 内置科目目录
var defaultSubjects = []model.Subject{
	{
		ID:          "1",
		Name:        "Mathematics",
		Icon:        "Calculator",
		Color:       "from-blue-500 to-cyan-500",
		Description: "Advanced mathematical concepts and problem-solving",
		Topics:      []string{"Algebra", "Calculus", "Geometry", "Statistics", "Trigonometry"},
	},
	{
		ID:          "2",
		Name:        "Physics",
		Icon:        "Atom",
		Color:       "from-purple-500 to-pink-500",
		Description: "Fundamental physics principles and applications",
		Topics:      []string{"Mechanics", "Thermodynamics", "Electromagnetism", "Optics", "Modern Physics"},
	},
	{
		ID:          "3",
		Name:        "Computer Science",
		Icon:        "Code",
		Color:       "from-green-500 to-teal-500",
		Description: "Programming, algorithms, and computational thinking",
		Topics:      []string{"Data Structures", "Algorithms", "Programming", "Database", "Networks"},
	},
}

const defaultExplanation = "No explanation provided"

// ContentService serves the fixed subject/exam catalog and manages the
// question bank.
type ContentService struct {
	QuestionRepo *repository.QuestionRepository
	Cfg          *config.Config

	subjects []model.Subject
	exams    []model.Exam
}

func NewContentService(questionRepo *repository.QuestionRepository, cfg *config.Config) *ContentService {
	s := &ContentService{
		QuestionRepo: questionRepo,
		Cfg:          cfg,
		subjects:     defaultSubjects,
	}
	s.exams = buildExams(s.subjects, cfg.Content)
	return s
}

func buildExams(subjects []model.Subject, cfg config.ContentConfig) []model.Exam {
	exams := make([]model.Exam, 0, len(subjects)*cfg.ExamsPerSubject)
	for _, sub := range subjects {
		for i := 1; i <= cfg.ExamsPerSubject; i++ {
			exams = append(exams, model.Exam{
				ID:          fmt.Sprintf("%s-exam-%d", sub.ID, i),
				Subject:     sub,
				Title:       fmt.Sprintf("%s Exam %d", sub.Name, i),
				Duration:    cfg.ExamDurationMinutes,
				Questions:   []model.Question{},
				TotalPoints: cfg.ExamTotalPoints,
			})
		}
	}
	return exams
}

func (s *ContentService) Subjects() []model.Subject {
	out := make([]model.Subject, len(s.subjects))
	copy(out, s.subjects)
	return out
}

func (s *ContentService) Subject(id string) (*model.Subject, error) {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			sub := s.subjects[i]
			return &sub, nil
		}
	}
	return nil, util.ErrSubjectNotFound
}

// SubjectByName matches case-insensitively.
func (s *ContentService) SubjectByName(name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	for i := range s.subjects {
		if strings.EqualFold(s.subjects[i].Name, name) {
			sub := s.subjects[i]
			return &sub, nil
		}
	}
	return nil, util.ErrSubjectNotFound
}

func (s *ContentService) AllExams() []model.Exam {
	out := make([]model.Exam, len(s.exams))
	copy(out, s.exams)
	return out
}

func (s *ContentService) Exams(subjectID string) ([]model.Exam, error) {
	if _, err := s.Subject(subjectID); err != nil {
		return nil, err
	}
	out := make([]model.Exam, 0, s.Cfg.Content.ExamsPerSubject)
	for _, e := range s.exams {
		if e.Subject.ID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ContentService) Exam(id string) (*model.Exam, error) {
	for i := range s.exams {
		if s.exams[i].ID == id {
			e := s.exams[i]
			return &e, nil
		}
	}
	return nil, util.ErrExamNotFound
}

// SubjectTotalPoints sums the nominal points of every exam in the subject.
func (s *ContentService) SubjectTotalPoints(subjectID string) int {
	total := 0
	for _, e := range s.exams {
		if e.Subject.ID == subjectID {
			total += e.TotalPoints
		}
	}
	return total
}

type QuestionFilter struct {
	SubjectID  string
	Topic      string
	Difficulty model.Difficulty
	Query      string
}

func (f QuestionFilter) match(q *model.Question) bool {
	if f.SubjectID != "" && q.Subject.ID != f.SubjectID {
		return false
	}
	if f.Topic != "" && !strings.EqualFold(q.Topic, f.Topic) {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		return strings.Contains(strings.ToLower(q.Question), term)
	}
	return true
}

func (s *ContentService) ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	all, err := s.QuestionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Question, 0, len(all))
	for i := range all {
		if filter.match(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// QuestionsForSubject returns up to limit questions in bank order; limit <= 0
// returns all of them.
func (s *ContentService) QuestionsForSubject(ctx context.Context, subjectID string, limit int) ([]model.Question, error) {
	return s.QuestionRepo.BySubject(ctx, subjectID, limit)
}

func (s *ContentService) Question(ctx context.Context, id string) (*model.Question, error) {
	return s.QuestionRepo.FindByID(ctx, id)
}

type QuestionInput struct {
	SubjectID     string           `json:"subjectId" binding:"required"`
	Topic         string           `json:"topic"`
	Difficulty    model.Difficulty `json:"difficulty" binding:"required"`
	Question      string           `json:"question" binding:"required"`
	Options       []string         `json:"options" binding:"required"`
	CorrectAnswer int              `json:"correctAnswer"`
	Explanation   string           `json:"explanation"`
	// Points defaults to 10 when zero.
	Points int `json:"points"`
}

func (s *ContentService) AddQuestion(ctx context.Context, in QuestionInput) (*model.Question, error) {
	subject, err := s.Subject(in.SubjectID)
	if err != nil {
		return nil, err
	}
	points := in.Points
	if points == 0 {
		points = model.DefaultQuestionPoints
	}
	difficulty := in.Difficulty
	if d, ok := model.ParseDifficulty(string(difficulty)); ok {
		difficulty = d
	}
	q := model.Question{
		ID:            model.GenerateUUID(),
		Subject:       *subject,
		Topic:         strings.TrimSpace(in.Topic),
		Difficulty:    difficulty,
		Question:      strings.TrimSpace(in.Question),
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Explanation:   in.Explanation,
		Points:        points,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuestion applies the non-nil fields of patch. The result must still
// be a valid question.
func (s *ContentService) UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.SubjectID != nil {
		subject, err := s.Subject(*patch.SubjectID)
		if err != nil {
			return nil, err
		}
		q.Subject = *subject
	}
	if patch.Topic != nil {
		q.Topic = *patch.Topic
	}
	if patch.Difficulty != nil {
		q.Difficulty = *patch.Difficulty
	}
	if patch.Question != nil {
		q.Question = *patch.Question
	}
	if patch.Options != nil {
		q.Options = *patch.Options
	}
	if patch.CorrectAnswer != nil {
		q.CorrectAnswer = *patch.CorrectAnswer
	}
	if patch.Explanation != nil {
		q.Explanation = *patch.Explanation
	}
	if patch.Points != nil {
		q.Points = *patch.Points
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *ContentService) DeleteQuestion(ctx context.Context, id string) error {
	return s.QuestionRepo.Delete(ctx, id)
}

type ImportReport struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// BulkImport parses one question per line:
//
//	Subject|Topic|Difficulty|Question|Opt1|Opt2|Opt3|Opt4|CorrectIndex|Explanation
//
// CorrectIndex is 1-based and may be omitted, in which case the first option
// is keyed. Lines that do not parse are skipped without detail.
func (s *ContentService) BulkImport(ctx context.Context, text string) (ImportReport, error) {
	var report ImportReport
	var added []model.Question

	sc := bufio.NewScanner(strings.NewReader(strings.TrimSpace(text)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		q, ok := s.parseImportLine(line)
		if !ok {
			report.Skipped++
			continue
		}
		added = append(added, q)
	}
	if err := sc.Err(); err != nil {
		return report, err
	}

	if len(added) > 0 {
		if err := s.QuestionRepo.Create(ctx, added...); err != nil {
			return report, err
		}
	}
	report.Added = len(added)

	monitoring.QuestionsImported.WithLabelValues("added").Add(float64(report.Added))
	monitoring.QuestionsImported.WithLabelValues("skipped").Add(float64(report.Skipped))
	logger.Log.Info("Bulk import finished", zap.Int("added", report.Added), zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *ContentService) parseImportLine(line string) (model.Question, bool) {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 8 {
		return model.Question{}, false
	}

	subject, err := s.SubjectByName(parts[0])
	if err != nil {
		return model.Question{}, false
	}
	difficulty, ok := model.ParseDifficulty(parts[2])
	if !ok {
		return model.Question{}, false
	}

	correct := 0
	if len(parts) > 8 && parts[8] != "" {
		idx, err := strconv.Atoi(parts[8])
		if err != nil {
			return model.Question{}, false
		}
		correct = idx - 1
	}

	explanation := defaultExplanation
	if len(parts) > 9 && parts[9] != "" {
		explanation = parts[9]
	}

	q := model.Question{
		ID:            "exam-" + model.GenerateUUID(),
		Subject:       *subject,
		Topic:         parts[1],
		Difficulty:    difficulty,
		Question:      parts[3],
		Options:       []string{parts[4], parts[5], parts[6], parts[7]},
		CorrectAnswer: correct,
		Explanation:   explanation,
		Points:        difficulty.Points(),
	}
	if q.Validate() != nil {
		return model.Question{}, false
	}
	return q, true
}

// seedQuestion is the on-disk shape of a seed entry; subject may be an id or
// a name.
type seedQuestion struct {
	Subject       string   `yaml:"subject"`
	Topic         string   `yaml:"topic"`
	Difficulty    string   `yaml:"difficulty"`
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correctAnswer"`
	Explanation   string   `yaml:"explanation"`
	Points        int      `yaml:"points"`
}

type seedFile struct {
	Questions []seedQuestion `yaml:"questions"`
}

// SeedFromFile loads questions from a YAML file when the bank is empty. It
// returns how many were added.
func (s *ContentService) SeedFromFile(ctx context.Context, path string) (int, error) {
	count, err := s.QuestionRepo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	qs := make([]model.Question, 0, len(file.Questions))
	for i, sq := range file.Questions {
		subject, err := s.Subject(sq.Subject)
		if err != nil {
			if subject, err = s.SubjectByName(sq.Subject); err != nil {
				return 0, fmt.Errorf("seed question %d: %w", i+1, err)
			}
		}
		difficulty, _ := model.ParseDifficulty(sq.Difficulty)
		points := sq.Points
		if points == 0 {
			points = model.DefaultQuestionPoints
		}
		explanation := sq.Explanation
		if explanation == "" {
			explanation = defaultExplanation
		}
		q := model.Question{
			ID:            model.GenerateUUID(),
			Subject:       *subject,
			Topic:         sq.Topic,
			Difficulty:    difficulty,
			Question:      sq.Question,
			Options:       sq.Options,
			CorrectAnswer: sq.CorrectAnswer,
			Explanation:   explanation,
			Points:        points,
		}
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("seed question %d: %w", i+1, err)
		}
		qs = append(qs, q)
	}

	if len(qs) == 0 {
		return 0, nil
	}
	if err := s.QuestionRepo.Create(ctx, qs...); err != nil {
		return 0, err
	}
	logger.Log.Info("Question bank seeded", zap.String("file", path), zap.Int("count", len(qs)))
	return len(qs), nil
}
