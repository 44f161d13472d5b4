package infra

import (
	"net/http"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra/notify"
	"github.com/Salmaelayeb/sentinel-hub/pkg/repository/memory"
)

type Clients struct {
	database   interfaces.Database
	notifier   interfaces.Notifier
	adapters   *adapter.Registry
	httpClient HTTPClient
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Clients)

func New(options ...Option) *Clients {
	client := &Clients{
		database:   memory.New(),
		notifier:   notify.NewLogNotifier(),
		adapters:   adapter.NewRegistry(),
		httpClient: http.DefaultClient,
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

func (x *Clients) Database() interfaces.Database {
	return x.database
}
func (x *Clients) Notifier() interfaces.Notifier {
	return x.notifier
}
func (x *Clients) Adapters() *adapter.Registry {
	return x.adapters
}
func (x *Clients) HTTPClient() HTTPClient {
	return x.httpClient
}

func WithDatabase(db interfaces.Database) Option {
	return func(x *Clients) {
		x.database = db
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(x *Clients) {
		x.notifier = notifier
	}
}

func WithAdapters(registry *adapter.Registry) Option {
	return func(x *Clients) {
		x.adapters = registry
	}
}

func WithHTTPClient(client HTTPClient) Option {
	return func(x *Clients) {
		x.httpClient = client
	}
}
