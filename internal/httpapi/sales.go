package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trailerstock/internal/domain"
)

func errInvalidQuery(name string) error {
	return fmt.Errorf("invalid %s query parameter", name)
}

// parseDayParam accepts YYYY-MM-DD in the shop zone or a full RFC3339
// timestamp. endOfRange moves a bare day to the next midnight so the whole
// day is included.
func parseDayParam(raw string, loc *time.Location, endOfRange bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if day, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		if endOfRange {
			day = day.AddDate(0, 0, 1)
		}
		return &day, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	loc := a.service.Location()

	from, err := parseDayParam(query.Get("from"), loc, false)
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, errInvalidQuery("from"))
		return
	}
	to, err := parseDayParam(query.Get("to"), loc, true)
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, errInvalidQuery("to"))
		return
	}

	filter := domain.SaleFilter{
		From:          from,
		To:            to,
		PaymentMethod: domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(query.Get("payment_method")))),
		Tier:          domain.CustomerTier(strings.ToUpper(strings.TrimSpace(query.Get("tier")))),
		Limit:         parsePositiveLimit(query.Get("limit"), 100, 1000),
	}

	sales, err := a.service.ListSales(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	if strings.EqualFold(query.Get("format"), "csv") {
		body, err := salesToCSV(sales, loc)
		if err != nil {
			writeError(a.logger, w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleVoidSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}

	var req domain.VoidSaleRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(a.logger, w, http.StatusBadRequest, err)
		return
	}

	sale, err := a.service.VoidSale(r.Context(), id, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	loc := a.service.Location()

	from, err := parseDayParam(query.Get("from"), loc, false)
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, errInvalidQuery("from"))
		return
	}
	to, err := parseDayParam(query.Get("to"), loc, true)
	if err != nil {
		writeError(a.logger, w, http.StatusBadRequest, errInvalidQuery("to"))
		return
	}

	var fromAt, toAt time.Time
	if from != nil {
		fromAt = *from
	}
	if to != nil {
		toAt = *to
	}

	summary, err := a.service.SalesSummary(r.Context(), fromAt, toAt)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func salesToCSV(sales []domain.Sale, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"id", "number", "created_at", "status", "tier", "payment_method", "items", "total_cents", "notes"}); err != nil {
		return nil, err
	}
	for _, sale := range sales {
		items := 0
		for _, line := range sale.Lines {
			items += line.Qty
		}
		record := []string{
			strconv.FormatInt(sale.ID, 10),
			sale.Number,
			sale.CreatedAt.In(loc).Format(time.RFC3339),
			string(sale.Status),
			string(sale.Tier),
			string(sale.PaymentMethod),
			strconv.Itoa(items),
			strconv.FormatInt(sale.TotalCents, 10),
			sale.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
