package messages

import "time"

// ClientActivity — событие активности клиента (вход, поиск посылки,
// открытие чата). Публикуется API, пишется в журнал воркером.
type ClientActivity struct {
	ID       string    `json:"id"`
	ClientID string    `json:"clientId"`
	Event    string    `json:"event"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}
