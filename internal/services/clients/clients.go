package clients

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
)

// Ошибки верификации различаются для пользователя: "не найден" и
// "база недоступна" показываются разным текстом.
var (
	ErrNotConfigured     = errors.New("clients sheet is not configured")
	ErrSourceUnavailable = errors.New("clients sheet is unavailable")
	ErrNotFound          = errors.New("client id or phone mismatch")
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Verifier сверяет пару (ID клиента, телефон) с ведомостью клиентов.
// Раскладка ведомости: A=ID, B=имя, C=телефон.
type Verifier struct {
	fetcher  sheets.Fetcher
	sheetURL string
	now      func() time.Time
}

func New(fetcher sheets.Fetcher, sheetURL string) *Verifier {
	return &Verifier{
		fetcher:  fetcher,
		sheetURL: sheetURL,
		now:      time.Now,
	}
}

// Verify ищет клиента по точному ID и совпадению телефона по последним
// девяти цифрам (местный номер без кода страны).
func (v *Verifier) Verify(ctx context.Context, clientID, phone string) (*models.ClientProfile, error) {
	if v.sheetURL == "" {
		return nil, ErrNotConfigured
	}
	id := models.NormalizeID(clientID)
	inputDigits := lastNine(nonDigitRe.ReplaceAllString(phone, ""))

	text, ok := v.fetcher.Fetch(ctx, v.sheetURL)
	if !ok || sheets.IsHTML(text) {
		return nil, ErrSourceUnavailable
	}

	for _, row := range strings.Split(text, "\n") {
		cols := sheets.SplitRow(row)
		if len(cols) < 3 {
			continue
		}
		sheetID := models.NormalizeID(cols[0])
		if sheetID != id {
			continue
		}
		sheetDigits := nonDigitRe.ReplaceAllString(cols[2], "")
		if !strings.HasSuffix(sheetDigits, inputDigits) {
			continue
		}
		name := strings.TrimSpace(cols[1])
		if name == "" {
			name = "Mijoz"
		}
		return &models.ClientProfile{
			Name:         name,
			Phone:        "+998 " + inputDigits,
			ClientID:     sheetID,
			RegisteredAt: v.now(),
		}, nil
	}
	return nil, ErrNotFound
}

// ListRoster возвращает всех клиентов из ведомости для админки.
// Любой сбой источника — пустой список.
func (v *Verifier) ListRoster(ctx context.Context) []models.RosterClient {
	if v.sheetURL == "" {
		return nil
	}
	text, ok := v.fetcher.Fetch(ctx, v.sheetURL)
	if !ok || sheets.IsHTML(text) {
		return nil
	}

	rows := strings.Split(text, "\n")
	var out []models.RosterClient
	for i := 1; i < len(rows); i++ {
		cols := sheets.SplitRow(rows[i])
		if len(cols) < 2 {
			continue
		}
		clientID := strings.TrimSpace(cols[0])
		if clientID == "" {
			continue
		}
		name := strings.TrimSpace(cols[1])
		if name == "" {
			name = "Mijoz"
		}
		var digits string
		if len(cols) > 2 {
			digits = nonDigitRe.ReplaceAllString(cols[2], "")
		}
		phone := digits
		if len(digits) >= 9 {
			phone = "+998 " + lastNine(digits)
		}
		out = append(out, models.RosterClient{
			ID:       strconv.Itoa(i),
			ClientID: clientID,
			Name:     name,
			Phone:    phone,
		})
	}
	return out
}

func lastNine(digits string) string {
	if len(digits) > 9 {
		return digits[len(digits)-9:]
	}
	return digits
}
