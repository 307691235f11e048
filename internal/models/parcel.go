package models

import "time"

// Типы доставки (в таблицах и названиях рейсов — "avia" / "avto").
const (
	ServiceAvia = "AVIA"
	ServiceAvto = "AVTO"
)

type TrackingEvent struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	Location  string `json:"location"`
	Completed bool   `json:"completed"`
}

// ParcelRecord — каноническая запись о посылке. History никогда не пустая:
// при резолве из рейса синтезируется хотя бы одно событие "Yo'lga chiqdi".
// События храним от новых к старым, новые prepend-ятся в начало.
type ParcelRecord struct {
	ID       string          `json:"id"`
	Sender   string          `json:"sender"`
	Receiver string          `json:"receiver"`
	Weight   string          `json:"weight"`
	ReysCode string          `json:"reysCode,omitempty"`
	Price    float64         `json:"price,omitempty"`
	History  []TrackingEvent `json:"history"`
}

type SavedTrack struct {
	ID      string    `json:"id"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

type ClientProfile struct {
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	ClientID     string     `json:"clientId"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastActive   *time.Time `json:"lastActive,omitempty"`
}

type ServicePrices struct {
	Standard float64 `json:"standard"`
	Bulk     float64 `json:"bulk"`
}

type AppSettings struct {
	ExchangeRate float64 `json:"exchangeRate"`
	Prices       struct {
		Avto ServicePrices `json:"avto"`
		Avia ServicePrices `json:"avia"`
	} `json:"prices"`
	DeliveryTime struct {
		Avto string `json:"avto"`
		Avia string `json:"avia"`
	} `json:"deliveryTime"`
}

// ArrivalManifest — списки кодов рейсов, прибывших на склад в Ташкенте.
// Не персистится, пересобирается из таблицы на каждый запрос (через кэш).
type ArrivalManifest struct {
	Avia []string `json:"avia"`
	Avto []string `json:"avto"`
}

type RosterClient struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}
