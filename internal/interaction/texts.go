package interaction

import (
	"fmt"
	"strings"

	"github.com/m3rciful/vidgate/internal/quality"
)

// Texts holds every non-error string the bot sends. Failure messages live in
// the failure package.
type Texts struct {
	Welcome         string // %s = escaped first name, Markdown
	Help            string // Markdown
	Prompt          string
	FollowButton    string
	ConfirmButton   string
	Thanks          string
	ChooseQuality   string
	TitleLine       string // %s = media title
	Progress        string // %s = quality label
	Caption         string // %s = quality label
	Cancelled       string
	NothingToCancel string
	SendLink        string
	Stats           string // confirmed, active, queued, pending
}

var texts = map[string]Texts{
	"ar": {
		Welcome: "مرحبًا %s! 👋\n\n" +
			"أنا بوت التنزيل الذكي 🚀\n" +
			"أرسل لي رابط أي فيديو، صورة أو أغنية وسأحاول تنزيلها لك.\n\n" +
			"📌 *كيفية الاستخدام:*\n" +
			"1. أرسل رابط المحتوى\n" +
			"2. اختر الجودة المطلوبة\n" +
			"3. انتظر حتى أرسل لك الملف",
		Help: "📌 *كيفية الاستخدام:*\n" +
			"1. أرسل رابط المحتوى\n" +
			"2. اختر الجودة المطلوبة\n" +
			"3. انتظر حتى أرسل لك الملف\n\n" +
			"/cancel لإلغاء الاختيار الحالي",
		Prompt:          "⏳ يرجى متابعة حسابنا على الإنستجرام أولاً",
		FollowButton:    "متابعة الإنستجرام",
		ConfirmButton:   "✅ تمت المتابعة",
		Thanks:          "شكرًا للمتابعة! ✅\nيمكنك الآن استخدام البوت.\nأرسل /start للبدء.",
		ChooseQuality:   "📊 اختر جودة التنزيل:",
		TitleLine:       "🎬 %s",
		Progress:        "⏳ جاري تنزيل الفيديو بجودة %s...",
		Caption:         "✅ تم التنزيل بنجاح بجودة %s",
		Cancelled:       "تم إلغاء الاختيار الحالي.",
		NothingToCancel: "لا يوجد اختيار قيد الانتظار.",
		SendLink:        "🔗 أرسل لي رابط المحتوى كنص.",
		Stats:           "👥 المستخدمون المؤكدون: %d\n⬇️ تنزيلات نشطة: %d\n🕒 في الانتظار: %d\n📊 اختيارات معلقة: %d",
	},
	"en": {
		Welcome: "Hello %s! 👋\n\n" +
			"I am the smart download bot 🚀\n" +
			"Send me a link to any video, image or song and I will try to download it for you.\n\n" +
			"📌 *How to use:*\n" +
			"1. Send the content link\n" +
			"2. Pick the quality you want\n" +
			"3. Wait until I send you the file",
		Help: "📌 *How to use:*\n" +
			"1. Send the content link\n" +
			"2. Pick the quality you want\n" +
			"3. Wait until I send you the file\n\n" +
			"/cancel drops the pending selection",
		Prompt:          "⏳ Please follow our Instagram account first",
		FollowButton:    "Follow on Instagram",
		ConfirmButton:   "✅ I followed",
		Thanks:          "Thanks for following! ✅\nYou can use the bot now.\nSend /start to begin.",
		ChooseQuality:   "📊 Choose the download quality:",
		TitleLine:       "🎬 %s",
		Progress:        "⏳ Downloading the video in %s...",
		Caption:         "✅ Downloaded successfully in %s",
		Cancelled:       "The pending selection was cancelled.",
		NothingToCancel: "There is no pending selection.",
		SendLink:        "🔗 Send me the content link as text.",
		Stats:           "👥 Confirmed users: %d\n⬇️ Active downloads: %d\n🕒 Queued: %d\n📊 Pending selections: %d",
	},
}

// TextsFor returns the catalog for locale, falling back to Arabic.
func TextsFor(locale string) Texts {
	if t, ok := texts[strings.ToLower(strings.TrimSpace(locale))]; ok {
		return t
	}
	return texts["ar"]
}

func (t Texts) choosePrompt(title string) string {
	if title == "" {
		return t.ChooseQuality
	}
	return t.ChooseQuality + "\n" + fmt.Sprintf(t.TitleLine, title)
}

// ProgressText is the in-progress acknowledgement for d.
func (t Texts) ProgressText(d quality.Directive) string {
	return fmt.Sprintf(t.Progress, d.Quality)
}

// CaptionText is the caption of the delivered video.
func (t Texts) CaptionText(d quality.Directive) string {
	return fmt.Sprintf(t.Caption, d.Quality)
}
