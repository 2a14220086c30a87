package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/rendering"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/server"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a practice interview in the terminal",
	Long: "Generates questions for the chosen role and asks them one at a time. Type an answer and press Enter, " +
		"or use /skip, /retry, /save and /quit.",
	RunE: runPractice,
}

var (
	practiceUser       string
	practiceRole       string
	practiceDomain     string
	practiceMode       string
	practiceSet        string
	practiceDifficulty string
	practiceCount      int
	practiceTimeLimit  int
	practiceJobURL     string
	practiceResume     bool
	practiceExport     string
	practiceOutDir     string
)

func init() {
	practiceCmd.Flags().StringVarP(&practiceUser, "user", "u", "", "User ID for history and the leaderboard (required)")
	practiceCmd.Flags().StringVarP(&practiceRole, "role", "r", "", "Target job role, e.g. \"Backend Engineer\"")
	practiceCmd.Flags().StringVar(&practiceDomain, "domain", "", "Optional domain or specialization")
	practiceCmd.Flags().StringVarP(&practiceMode, "mode", "m", "Technical", "Interview mode: Technical or Behavioral")
	practiceCmd.Flags().StringVar(&practiceSet, "question-set", "Standard", "Question set: Standard, FAANG-style or STAR-based")
	practiceCmd.Flags().StringVarP(&practiceDifficulty, "difficulty", "d", "Medium", "Difficulty: Easy, Medium or Hard")
	practiceCmd.Flags().IntVarP(&practiceCount, "count", "n", 0, "Number of questions, 1-10 (default from config)")
	practiceCmd.Flags().IntVarP(&practiceTimeLimit, "time-limit", "t", -1, "Seconds per question, 0 for no timer (default from config)")
	practiceCmd.Flags().StringVar(&practiceJobURL, "job-url", "", "Job posting URL used as question context")
	practiceCmd.Flags().BoolVar(&practiceResume, "resume", false, "Resume the interview saved with /save")
	practiceCmd.Flags().StringVar(&practiceExport, "export", "", "Write the finished report as text or pdf")
	practiceCmd.Flags().StringVarP(&practiceOutDir, "out", "o", ".", "Directory for exported reports")

	if err := practiceCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, _ []string) error {
	var exportFormat rendering.Format
	if practiceExport != "" {
		f, err := rendering.ParseFormat(practiceExport)
		if err != nil {
			return err
		}
		exportFormat = f
	}
	if !practiceResume && strings.TrimSpace(practiceRole) == "" {
		return fmt.Errorf("--role is required unless --resume is set")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	p := &practice{
		engine:  a.engine,
		store:   a.store,
		printer: observability.NewPrinter(out),
		logger:  logger,
		userID:  practiceUser,
	}

	var sess *interview.Session
	if practiceResume {
		sess, err = p.restore(ctx)
		if err != nil {
			return err
		}
		p.printer.PrintNotice("Resumed interview at question %d of %d", sess.Index+1, sess.Total())
	} else {
		settings := interview.Settings{
			UserID:           practiceUser,
			Role:             practiceRole,
			Domain:           practiceDomain,
			Mode:             interview.Mode(practiceMode),
			QuestionSet:      interview.QuestionSet(practiceSet),
			Difficulty:       interview.Difficulty(practiceDifficulty),
			Count:            practiceCount,
			TimeLimitSeconds: practiceTimeLimit,
			JobPostingURL:    practiceJobURL,
		}
		if settings.Count == 0 {
			settings.Count = cfg.DefaultQuestionCount
		}
		if settings.TimeLimitSeconds < 0 {
			settings.TimeLimitSeconds = cfg.DefaultTimeLimit
		}
		p.printer.PrintNotice("Generating %s questions...", strings.ToLower(practiceMode))
		if sess, err = p.start(ctx, settings); err != nil {
			return err
		}
	}

	if err := p.run(ctx, sess, readLines(ctx, cmd.InOrStdin())); err != nil {
		return err
	}

	if sess.Phase == interview.PhaseSummary && exportFormat != "" {
		path, err := export(sess, exportFormat, practiceOutDir, time.Now())
		if err != nil {
			return err
		}
		p.printer.PrintNotice("Report written to %s", path)
	}
	return nil
}

// practice drives one terminal interview.
type practice struct {
	engine  *interview.Engine
	store   db.Store
	printer *observability.Printer
	logger  *zap.Logger
	userID  string
}

func (p *practice) start(ctx context.Context, settings interview.Settings) (*interview.Session, error) {
	sess := p.engine.NewSession(p.userID)
	if err := p.engine.Start(ctx, sess, settings); err != nil {
		return nil, err
	}
	s := sess.Settings
	p.printer.PrintSessionHeader(observability.SessionHeader{
		UserID:      s.UserID,
		Role:        s.Role,
		Domain:      s.Domain,
		Mode:        string(s.Mode),
		QuestionSet: string(s.QuestionSet),
		Difficulty:  string(s.Difficulty),
		Count:       s.Count,
		TimeLimit:   time.Duration(s.TimeLimitSeconds) * time.Second,
	})
	return sess, nil
}

// run asks questions until the session reaches its summary, the user quits or
// input ends.
func (p *practice) run(ctx context.Context, sess *interview.Session, lines <-chan string) error {
	for sess.Phase == interview.PhaseInterview {
		if err := p.ask(ctx, sess, lines); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}

	if sess.Summary != nil {
		p.printer.PrintSummary(sess.Summary.Text, sess.Scores, sess.Average())
	}
	return nil
}

var errQuit = errors.New("quit")

// ask shows the current question and waits for one command or answer, or for
// the question's timer.
func (p *practice) ask(ctx context.Context, sess *interview.Session, lines <-chan string) error {
	question, _ := sess.CurrentQuestion()
	remaining := time.Duration(-1)
	var timeout <-chan time.Time
	if left, ok := sess.Remaining(time.Now()); ok {
		remaining = left
		timer := time.NewTimer(left)
		defer timer.Stop()
		timeout = timer.C
	}
	p.printer.PrintQuestion(sess.Index+1, sess.Total(), question, remaining)

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timeout:
		timedOut, err := p.engine.Tick(ctx, sess)
		if err != nil {
			return err
		}
		if timedOut {
			p.printer.PrintNotice("Time is up. The question was recorded as skipped.")
		}
		return nil

	case line, ok := <-lines:
		if !ok {
			p.printer.PrintNotice("Input closed. Use /save before quitting to keep your progress.")
			return errQuit
		}
		return p.handle(ctx, sess, strings.TrimSpace(line))
	}
}

func (p *practice) handle(ctx context.Context, sess *interview.Session, line string) error {
	switch strings.ToLower(line) {
	case "/quit", "/exit":
		return errQuit
	case "/skip":
		return p.engine.Skip(ctx, sess)
	case "/retry":
		if err := p.engine.Retry(sess); err != nil {
			return err
		}
		p.printer.PrintNotice("Timer restarted.")
		return nil
	case "/save":
		if err := p.save(ctx, sess); err != nil {
			p.logger.Warn("failed to save session", zap.Error(err))
			p.printer.PrintNotice("Could not save the interview: %v", err)
			return nil
		}
		p.printer.PrintNotice("Interview saved. Continue later with --resume.")
		return nil
	case "/help", "?":
		p.printer.PrintNotice("Type your answer and press Enter. Commands: /skip /retry /save /quit")
		return nil
	}

	err := p.engine.Submit(ctx, sess, line)
	var validationErr *interview.ValidationError
	switch {
	case errors.Is(err, interview.ErrTimeExpired):
		p.printer.PrintNotice("Time had already run out. The question was recorded as skipped.")
		return nil
	case errors.As(err, &validationErr):
		p.printer.PrintNotice("Please type an answer, or /skip to move on.")
		return nil
	case err != nil:
		return err
	}

	feedback := sess.LastFeedback()
	score, found := interview.ExtractScore(feedback)
	p.printer.PrintFeedback(feedback, score, found)
	return nil
}

// save stores the session as the user's snapshot.
func (p *practice) save(ctx context.Context, sess *interview.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := schemas.ValidateSnapshot(data); err != nil {
		return err
	}
	return p.store.SaveSnapshot(ctx, p.userID, data)
}

// restore loads the user's snapshot. Finished interviews cannot be resumed.
func (p *practice) restore(ctx context.Context) (*interview.Session, error) {
	data, err := p.store.LoadSnapshot(ctx, p.userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("no saved interview for user %q", p.userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved interview: %w", err)
	}
	sess, err := server.DecodeSnapshot(data, p.userID)
	if err != nil {
		return nil, err
	}
	if sess.Phase != interview.PhaseInterview {
		return nil, fmt.Errorf("saved interview is in %s phase and cannot be resumed", sess.Phase)
	}
	// The timer restarts on resume.
	if err := p.engine.Retry(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// readLines delivers input lines until r ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// export writes the finished report to dir and returns its path.
func export(sess *interview.Session, format rendering.Format, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, rendering.Filename(sess.UserID, format, now))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case rendering.FormatPDF:
		err = rendering.PDF(f, sess)
	default:
		var text []byte
		if text, err = rendering.Text(sess); err == nil {
			_, err = f.Write(text)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
