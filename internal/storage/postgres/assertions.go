package postgres

import (
	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
)

var (
	_ account.Store  = (*Store)(nil)
	_ account.Tx     = (*Tx)(nil)
	_ statement.Repo = (*Store)(nil)
	_ admin.Repo     = (*Store)(nil)
)
