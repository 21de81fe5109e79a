package failure

// DefaultLocale is the catalog used when bot.locale is empty or unknown.
const DefaultLocale = "ar"

var catalogs = map[string]map[Kind]string{
	"ar": {
		Blocked:         "⏳ يرجى متابعة حسابنا على الإنستجرام أولاً",
		ProbeFailed:     "❌ حدث خطأ أثناء معالجة الرابط. يرجى المحاولة مرة أخرى.",
		NoQualities:     "⚠️ لم أتمكن من العثور على خيارات جودة لهذا المحتوى.",
		Expired:         "❌ انتهت صلاحية المعلومات. يرجى إرسال الرابط مرة أخرى.",
		RetrievalFailed: "❌ حدث خطأ أثناء تنزيل الفيديو. يرجى المحاولة مرة أخرى.",
		Unexpected:      "❌ حدث خطأ غير متوقع. يرجى المحاولة لاحقًا.",
	},
	"en": {
		Blocked:         "⏳ Please follow our Instagram account first",
		ProbeFailed:     "❌ Could not process that link. Please try again.",
		NoQualities:     "⚠️ I could not find any quality options for this content.",
		Expired:         "❌ This selection has expired. Please send the link again.",
		RetrievalFailed: "❌ Downloading the video failed. Please try again.",
		Unexpected:      "❌ Something unexpected went wrong. Please try later.",
	},
}

// Locales lists the available catalogs.
func Locales() []string {
	return []string{"ar", "en"}
}
