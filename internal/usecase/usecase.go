// Package usecase holds the application services. Each use case depends only
// on the domain ports plus the wallet service, and every money-moving flow
// runs inside a per-user advisory-locked transaction.
package usecase

import "github.com/jackc/pgx/v4"

var defaultTxOptions = pgx.TxOptions{}
