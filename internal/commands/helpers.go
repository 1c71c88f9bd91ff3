package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/auth"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/hmrc"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/ledger"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

// ErrObligationNotFound indicates a due date that matches no
// obligation.
var ErrObligationNotFound = errors.New("does not match any obligation")

// session bundles the loaded config, auth state and API client for one
// CLI operation.
type session struct {
	cfg    *config.Config
	store  *auth.Store
	client *hmrc.Client
}

func newSession(flags *rootFlags) (*session, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	store, err := auth.Load(flags.authPath)
	if err != nil {
		return nil, err
	}

	env, err := hmrc.EnvironmentFor(cfg.Application.Profile)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		store:  store,
		client: hmrc.NewClient(env, cfg, store),
	}, nil
}

// openBook opens the configured ledger backend.
func (s *session) openBook() (ledger.Book, error) {
	return ledger.Open(ledger.Kind(s.cfg.Accounts.Kind), s.cfg.Accounts.File)
}

// parseDateFlag parses an ISO date flag value.
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --%s: %w", name, err)
	}
	return t, nil
}

// dateRangeFlags resolves --start/--end, defaulting to the last two
// years when unset.
func dateRangeFlags(start, end string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	s := now.AddDate(0, 0, -2*356)
	e := now

	var err error
	if start != "" {
		if s, err = parseDateFlag("start", start); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end != "" {
		if e, err = parseDateFlag("end", end); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return s, e, nil
}

// obligationByDue finds the obligation whose statutory due date
// matches.
func obligationByDue(obs []model.Obligation, due time.Time) (model.Obligation, error) {
	want := model.DateOf(due)
	for _, o := range obs {
		if o.Due != nil && o.Due.Equal(want.Time) {
			return o, nil
		}
	}
	return model.Obligation{}, fmt.Errorf("due date %s %w", want, ErrObligationNotFound)
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// table renders rows with aligned columns.
func table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func dateOrEmpty(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func amountOrEmpty(a *model.Amount) string {
	if a == nil {
		return ""
	}
	return a.StringFixed(2)
}

// submissionDeclaration is shown before an irreversible submission.
const submissionDeclaration = `
When you submit this VAT information you are making a legal
declaration that the information is true and complete. A false
declaration can result in prosecution.
`

// confirmSubmission prompts for an explicit yes/no, re-prompting on
// anything else.
func confirmSubmission(in io.Reader, out io.Writer) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, submissionDeclaration)
		fmt.Fprint(out, "OK to submit? (yes/no) ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		switch strings.TrimSpace(line) {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		fmt.Fprintln(out, "Answer not recognised.")
	}
}
