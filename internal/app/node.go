package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/adapters/config"      //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/fingerprint" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/idgen"       //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/logger"      //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/shell"       //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/telemetry"   //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/watcher"     //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/notify"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			shell.NodeID,
			fingerprint.NodeID,
			idgen.NodeID,
			watcher.NodeID,
			notify.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Fingerprinter](ctx)
	if err != nil {
		return nil, err
	}

	ids, err := graft.Dep[ports.IDGenerator](ctx)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	events, err := graft.Dep[*notify.Dispatcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, tracer, executor, hasher, ids, fileWatcher, events), nil
}
