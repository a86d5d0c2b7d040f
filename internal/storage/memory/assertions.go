package memory

import (
	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ account.Store  = (*Store)(nil)
	_ account.Tx     = (*memTx)(nil)
	_ statement.Repo = (*Store)(nil)
	_ admin.Repo     = (*Store)(nil)
)
