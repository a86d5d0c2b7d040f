package httpapi

import "net/http"

// GET /v1/statement/{id}?month=&year=
func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, ok := r.Context().Value(ctxKeyStatementQuery).(statementQuery)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated query missing", "internal")
		return
	}
	st, err := s.statements.Generate(r.Context(), id, q.Month, q.Year)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st))
}
