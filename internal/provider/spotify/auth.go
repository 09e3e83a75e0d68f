package spotify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// fetchToken exchanges client credentials for a bearer token using HTTP Basic
// auth. Any failure is an *provider.ErrAuth; there is no retry.
func fetchToken(ctx context.Context, httpClient *http.Client, cfg Config, logger *slog.Logger) (string, error) {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, httpClient))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			logger.Error("catalog token endpoint returned error status",
				slog.Int("status", re.Response.StatusCode),
				slog.String("body", string(re.Body)))
			return "", &provider.ErrAuth{
				StatusCode: re.Response.StatusCode,
				Body:       string(re.Body),
				Cause:      err,
			}
		}
		logger.Error("catalog token exchange failed", slog.String("error", err.Error()))
		return "", &provider.ErrAuth{Cause: err}
	}

	logger.Debug("catalog token obtained", slog.String("token_type", tok.TokenType))
	return tok.AccessToken, nil
}
