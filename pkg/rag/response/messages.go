package response

const (
	// GreetingReply answers a bare greeting without touching retrieval.
	GreetingReply = "こんにちは！ご質問があればお気軽にどうぞ。"

	// OutOfScopeReply is returned when no evidence at all was found.
	OutOfScopeReply = "当社はコーヒー製品の委託加工を専門とする会社です。" +
		"恐れ入りますが、ご質問内容が当社業務と直接関連のある内容かどうかをご確認のうえ、" +
		"改めてお尋ねいただけますと幸いです。\n\n" +
		"ご不明な点がございましたら、当社の【お問い合わせフォーム】よりご連絡ください。"

	// DefaultSystemPrompt is used when no system prompt file is configured.
	DefaultSystemPrompt = "あなたはコーヒー製品の委託加工会社のカスタマーサポート担当です。" +
		"提供されたFAQと参考情報のみに基づき、丁寧な日本語で回答してください。" +
		"情報が不足している場合は、推測せずにお問い合わせフォームへの連絡を案内してください。"
)
