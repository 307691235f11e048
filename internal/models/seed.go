package models

// Встроенные демо-записи. Резолвер проверяет их раньше всех источников,
// ключ — нормализованный ID.
var SeedParcels = map[string]*ParcelRecord{
	"YAQ-882190": {
		ID:       "YAQ-882190",
		Sender:   "Guangzhou Trading Co.",
		Receiver: "Azizbek T.",
		Weight:   "12.5 kg",
		History: []TrackingEvent{
			{Date: "Oct 24", Time: "14:30", Status: "Delivered to Customer", Location: "Tashkent, UZ", Completed: true},
			{Date: "Oct 24", Time: "09:15", Status: "Out for Delivery", Location: "Tashkent, UZ", Completed: true},
			{Date: "Oct 22", Time: "18:00", Status: "Arrived at Destination Hub", Location: "Tashkent, UZ", Completed: true},
			{Date: "Oct 18", Time: "10:00", Status: "Customs Clearance", Location: "Tashkent Airport", Completed: true},
			{Date: "Oct 15", Time: "22:45", Status: "Departed Origin Country", Location: "Guangzhou, CN", Completed: true},
			{Date: "Oct 14", Time: "16:20", Status: "Picked up by Carrier", Location: "Guangzhou, CN", Completed: true},
		},
	},
	"YAQ-112233": {
		ID:       "YAQ-112233",
		Sender:   "Shenzhen Electronics Ltd.",
		Receiver: "Malika Shop",
		Weight:   "45.0 kg",
		History: []TrackingEvent{
			{Date: "Nov 02", Time: "08:00", Status: "Arrived at Warehouse", Location: "Guangzhou, CN", Completed: true},
			{Date: "Nov 01", Time: "14:00", Status: "Order Processed", Location: "Shenzhen, CN", Completed: true},
		},
	},
}
