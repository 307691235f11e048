package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

// Роли сообщений в истории диалога (терминология Gemini API).
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FallbackMessage показывается пользователю при любом сбое модели.
const FallbackMessage = "Hozircha aloqa bilan muammo bor. Iltimos, keyinroq urinib ko'ring."

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Client — стриминговый чат поддержки. onDelta вызывается на каждый
// фрагмент ответа по мере генерации.
type Client interface {
	StreamChat(ctx context.Context, systemInstruction string, history []Message, onDelta func(text string)) error
}

// SystemInstruction собирает промпт агента поддержки с актуальными
// тарифами. Пересобирается на каждый диалог: тарифы меняются.
func SystemInstruction(st models.AppSettings) string {
	return fmt.Sprintf(`
You are the intelligent customer support agent for "YAQIIN CARGO", a logistics company sending goods from China (Guangzhou) to Uzbekistan (Tashkent).

**KEY RULES:**
1. **Language**: Match the user's language. If they speak Uzbek, reply in Uzbek. If Russian, reply in Russian. Default to Uzbek if unsure.
2. **Tone**: Professional, friendly, and concise.

**COMPANY INFO:**
- **Admin/Support**: If you cannot answer, or if the user needs human help, tell them to contact admin via Telegram (@yaqiin).
- **Warehouse Address**: 浙江省金华市义乌市荷叶塘东青路89号618仓库 (Yiwu/Guangzhou area).
- **Client ID**: Users must have a specific "YAQIIN..." or "YAQ..." ID code (e.g., YAQ-12345).

**SERVICES & PRICING:**
- **🚛 AVTO (Truck)**:
  - Time: %s.
  - Price: $%s/kg.
- **✈️ AVIA (Air)**:
  - Time: %s.
  - Price: $%s/kg.
- **Exchange Rate**: 1 USD = %s UZS.

**❌ STRICT AVIA (AIR) RESTRICTIONS:**
The following items are **FORBIDDEN** in AVIA and **MUST** go via AVTO:
1. **Batteries** (Power banks, electronics with batteries).
2. **Magnets** (Speakers, specific electronics).
3. **Liquids** (Perfumes, creams, drinks, oils).
4. **Flammable items**.

**TRACKING:**
- If a user asks "Where is my cargo?", ask them for their **Tracking ID** (e.g., YAQ-12345).
- You cannot check the database directly. Tell them to use the "Yuklarim" or "Asosiy" tab in the app to track their parcel.
`,
		st.DeliveryTime.Avto,
		formatPrice(st.Prices.Avto.Standard),
		st.DeliveryTime.Avia,
		formatPrice(st.Prices.Avia.Standard),
		groupThousands(st.ExchangeRate),
	)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupThousands форматирует курс с разделителями тысяч: 12850 -> "12,850".
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}
