package akinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURLTemplate builds the service origin; {region} is replaced.
const DefaultBaseURLTemplate = "https://{region}.akinator.com"

// guessPath asks the service for its best proposition at the current step.
const guessPath = "/list"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0 Safari/537.36"

var (
	questionRe  = regexp.MustCompile(`<p class="question-text" id="question-label">(.+?)</p>`)
	sessionRe   = regexp.MustCompile(`session:\s*'(.+?)'`)
	signatureRe = regexp.MustCompile(`signature:\s*'(.+?)'`)
)

// HTTPClient talks to the public web protocol of the service.
type HTTPClient struct {
	http        *http.Client
	urlTemplate string
	childMode   bool
}

// NewHTTPClient creates a client. An empty template uses
// DefaultBaseURLTemplate and a nil httpClient gets a 30 second timeout.
func NewHTTPClient(httpClient *http.Client, urlTemplate string) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	urlTemplate = strings.TrimRight(strings.TrimSpace(urlTemplate), "/")
	if urlTemplate == "" {
		urlTemplate = DefaultBaseURLTemplate
	}
	return &HTTPClient{http: httpClient, urlTemplate: urlTemplate}
}

func (c *HTTPClient) origin(region string) string {
	return strings.ReplaceAll(c.urlTemplate, "{region}", region)
}

// Start opens a game in region. A 403 response yields ErrAccessDenied.
func (c *HTTPClient) Start(ctx context.Context, region string) (Game, error) {
	origin := c.origin(region)
	form := url.Values{
		"sid": {"1"},
		"cm":  {strconv.FormatBool(c.childMode)},
	}
	body, err := c.post(ctx, origin, "/game", form)
	if err != nil {
		return nil, err
	}

	page := string(body)
	q := questionRe.FindStringSubmatch(page)
	sess := sessionRe.FindStringSubmatch(page)
	sig := signatureRe.FindStringSubmatch(page)
	if q == nil || sess == nil || sig == nil {
		return nil, errors.New("akinator start page is missing session data")
	}

	return &httpGame{
		client:    c,
		origin:    origin,
		session:   sess[1],
		signature: sig[1],
		question:  html.UnescapeString(q[1]),
	}, nil
}

func (c *HTTPClient) post(ctx context.Context, origin, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/game")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, origin)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("akinator %s http %d", path, resp.StatusCode)
	}
	return body, nil
}

// stepResponse covers both answer and back replies. A reply carrying
// IDProposition is a guess rather than a question.
type stepResponse struct {
	Completion             string `json:"completion"`
	Step                   string `json:"step"`
	Progression            string `json:"progression"`
	Question               string `json:"question"`
	IDProposition          string `json:"id_proposition"`
	NameProposition        string `json:"name_proposition"`
	DescriptionProposition string `json:"description_proposition"`
	Photo                  string `json:"photo"`
}

type httpGame struct {
	client    *HTTPClient
	origin    string
	session   string
	signature string

	question string
	step     int
	progress float64
	guess    *Guess
}

func (g *httpGame) Question() string  { return g.question }
func (g *httpGame) Step() int         { return g.step }
func (g *httpGame) Progress() float64 { return g.progress }

func (g *httpGame) baseForm() url.Values {
	return url.Values{
		"step":        {strconv.Itoa(g.step)},
		"progression": {strconv.FormatFloat(g.progress, 'f', -1, 64)},
		"sid":         {"1"},
		"cm":          {strconv.FormatBool(g.client.childMode)},
		"session":     {g.session},
		"signature":   {g.signature},
	}
}

func (g *httpGame) Answer(ctx context.Context, code AnswerCode) error {
	form := g.baseForm()
	form.Set("answer", strconv.Itoa(int(code)))
	form.Set("step_last_proposition", "")
	return g.exchange(ctx, "/answer", form)
}

func (g *httpGame) Back(ctx context.Context) error {
	if g.step == 0 {
		return ErrBackUnsupported
	}
	return g.exchange(ctx, "/cancel_answer", g.baseForm())
}

// Guess returns the proposition the last answer produced, or requests one
// from the service when the game ended on progress or the step ceiling.
func (g *httpGame) Guess(ctx context.Context) (Guess, error) {
	if g.guess != nil {
		return *g.guess, nil
	}
	if err := g.exchange(ctx, guessPath, g.baseForm()); err != nil {
		return Guess{}, fmt.Errorf("failed to request akinator guess: %w", err)
	}
	if g.guess == nil {
		return Guess{}, ErrNoGuess
	}
	return *g.guess, nil
}

func (g *httpGame) exchange(ctx context.Context, path string, form url.Values) error {
	body, err := g.client.post(ctx, g.origin, path, form)
	if err != nil {
		return err
	}
	var out stepResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to decode akinator %s response: %w", path, err)
	}
	if out.Completion != "" && out.Completion != "OK" {
		return fmt.Errorf("akinator %s failed: %s", path, out.Completion)
	}

	if out.IDProposition != "" {
		g.guess = &Guess{
			Name:        out.NameProposition,
			Description: out.DescriptionProposition,
			PhotoURL:    out.Photo,
		}
		g.progress = 100
		return nil
	}

	if step, err := strconv.Atoi(out.Step); err == nil {
		g.step = step
	}
	if p, err := strconv.ParseFloat(out.Progression, 64); err == nil {
		g.progress = p
	}
	if out.Question != "" {
		g.question = out.Question
	}
	return nil
}
