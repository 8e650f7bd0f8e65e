package app

import (
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/forms"
	"github.com/mbolis/quick-forms/httpx"
)

// App carries the dependencies of the request handlers.
type App struct {
	Store       *database.Store
	Tokens      *httpx.TokenService
	Credentials *httpx.Credentials
	Forms       *forms.Service
	config.Config
}

func New(cfg config.Config, store *database.Store) App {
	return App{
		Store:       store,
		Tokens:      httpx.NewTokenService(cfg),
		Credentials: httpx.NewCredentials(store),
		Forms:       forms.NewService(store),
		Config:      cfg,
	}
}
