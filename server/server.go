package server

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/crewdeskhq/crewdesk/authz"
	"github.com/crewdeskhq/crewdesk/generates"
	"github.com/crewdeskhq/crewdesk/store"
	"github.com/crewdeskhq/crewdesk/taskgraph"
)

// Server bundles the engine and its collaborators behind the HTTP surface.
type Server struct {
	Config     *AppConfig
	Tokens     *generates.JWTAccessGenerate
	Engine     *authz.Engine
	Validator  *taskgraph.Validator
	Users      *store.UserStore
	Workspaces *store.WorkspaceStore
	Links      *store.WorkItemLinkStore
	Revocation store.RevocationStore
	Log        logrus.FieldLogger
}

// NewServer wires the full stack from a database handle and loaded config.
// The schema capability probe runs once here, not per request.
func NewServer(cfg *AppConfig, db *gorm.DB) (*Server, error) {
	if cfg.DatabaseDSN() == "" && db == nil {
		return nil, ErrDBDSNNotSet
	}
	secret := cfg.AuthSecret()
	if secret == "" {
		return nil, ErrAuthSecretNotSet
	}

	log := logrus.StandardLogger()
	caps := store.DetectCapabilities(context.Background(), db)

	users := store.NewUserStore(db, caps)
	roles := store.NewRoleStore(db)
	workspaces := store.NewWorkspaceStore(db)
	links := store.NewWorkItemLinkStore(db)

	tokens := generates.NewJWTAccessGenerate(generates.TokenConfig{
		SignedKeyID: cfg.Auth.KeyID,
		Secret:      []byte(secret),
		Expiry:      cfg.Auth.TokenExpiry,
	})

	var revocation store.RevocationStore
	var err error
	if cfg.Valkey.Addr != "" {
		revocation, err = store.NewValkeyRevocationStore(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	} else {
		revocation, err = store.NewBuntRevocationStore(cfg.Revoke.BuntPath)
	}
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:     cfg,
		Tokens:     tokens,
		Engine:     authz.NewEngine(tokens, users, roles, workspaces, log),
		Validator:  taskgraph.NewValidator(links),
		Users:      users,
		Workspaces: workspaces,
		Links:      links,
		Revocation: revocation,
		Log:        log,
	}, nil
}
