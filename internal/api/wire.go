//go:build wireinject

package api

import (
	"github.com/google/wire"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/wallet/submit"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	NewServer,
	operatorSet,
)

var operatorSet = wire.NewSet(
	NewOperator,
	wire.Bind(new(Operator), new(*submit.Client)),
)

// InitNewServer returns a new Server instance talking to the configured operator.
func InitNewServer(
	cfg config.Config,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}

// InitNewServerWithOperator returns a new Server instance reading through the given operator.
func InitNewServerWithOperator(
	cfg config.Config,
	operator Operator,
) *Server {
	wire.Build(NewServer)
	return new(Server)
}
