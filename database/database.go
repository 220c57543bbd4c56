// Copyright 2022-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the subset of the pgx pool interface the price store needs; it
// is satisfied by both *pgxpool.Pool and pgxmock connections
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNotConnected = errors.New("database pool not initialized")
)

var pool PgxIface

// Connect initializes the database pool from the database.url viper key
func Connect(ctx context.Context) error {
	p, err := pgxpool.Connect(ctx, viper.GetString("database.url"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to database")
		return err
	}
	if err := p.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database")
		return err
	}
	pool = p
	return nil
}

// SetPool replaces the active pool; used by tests to install a pgxmock connection
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Trx begins a new transaction on the active pool
func Trx(ctx context.Context) (pgx.Tx, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}
	return pool.Begin(ctx)
}
