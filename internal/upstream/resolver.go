package upstream

import (
	"log/slog"
	"net/url"
	"strings"

	apperrors "github.com/readalongapp/readalong-server/internal/errors"
)

// URLResolver turns pipeline file references into playable URLs for
// the active playback context. Absolute references pass through
// unchanged, which also makes resolution idempotent: resolving an
// already-resolved URL returns it as-is.
type URLResolver struct {
	baseURL string
	jobID   string
	logger  *slog.Logger
}

// NewURLResolver creates a resolver scoped to one job.
func NewURLResolver(baseURL, jobID string, logger *slog.Logger) *URLResolver {
	return &URLResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		jobID:   jobID,
		logger:  logger,
	}
}

// Resolve maps a reference to a URL. When the reference cannot be
// resolved properly it still returns a best-guess constructed path
// alongside an unresolvable-path error, so navigation is never blocked
// on a bad reference.
func (r *URLResolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", apperrors.UnresolvablePath("empty reference")
	}

	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
		return ref, nil
	}

	guess := r.bestGuess(ref)
	if r.baseURL == "" {
		return guess, apperrors.UnresolvablePath("no base URL configured for relative references")
	}
	return guess, nil
}

// ResolveURL implements tracks.Resolver. Resolution failures degrade
// to the best-guess path; they are logged at debug, never surfaced.
func (r *URLResolver) ResolveURL(ref string) string {
	resolved, err := r.Resolve(ref)
	if err != nil && r.logger != nil {
		r.logger.Debug("path resolution fell back to best guess",
			"ref", ref,
			"resolved", resolved,
			"error", err,
		)
	}
	return resolved
}

// bestGuess constructs the conventional file path for a job-relative
// reference.
func (r *URLResolver) bestGuess(ref string) string {
	ref = strings.TrimLeft(ref, "/")
	if r.jobID != "" && !strings.HasPrefix(ref, "jobs/") {
		ref = "jobs/" + url.PathEscape(r.jobID) + "/files/" + ref
	}
	if r.baseURL == "" {
		return "/" + ref
	}
	return r.baseURL + "/" + ref
}
