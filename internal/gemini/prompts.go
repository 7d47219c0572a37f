package gemini

// DefaultSystemInstruction is used when ai.system_instruction is empty.
const DefaultSystemInstruction = `You are a helpful assistant chatting with people on Telegram. Keep answers concise. You may use Telegram Markdown: *bold*, _italic_, ` + "`code`" + ` and fenced code blocks.`
