package service

import (
	"fmt"
	"strings"
)

// TranscriptPrompt asks the model to transcribe the video's copy.
const TranscriptPrompt = `请仔细分析这个视频，提取并复述视频中的文案内容（如果有的话）。如果没有明确的文案，请描述视频中的对话、旁白或文字内容。

要求：
1. 只提取纯文本内容，不要包含任何时间戳、时间信息
2. 按照视频中出现的顺序，完整呈现文案文本
3. 如果有字幕或文字，直接提取字幕内容
4. 如果是对话或旁白，用引号标注并说明是谁说的`

// AnalysisPrompt asks for a style and structure analysis.
const AnalysisPrompt = `请详细分析这个视频的特点、风格和结构，包括但不限于：
1. 视频的拍摄风格（如：第一人称、第三人称、特写、全景等）
2. 视频的节奏和剪辑特点
3. 视频的内容主题和情感表达
4. 视频的语言风格（如：幽默、严肃、轻松、紧张等）
5. 视频的视觉元素（如：场景、道具、服装等）
6. 视频的目标受众和传播特点
请给出详细的分析报告。`

// DefaultQuickPrompt is used by single-prompt copywriting when none is given.
const DefaultQuickPrompt = "请分析这个视频的内容，并生成一个吸引人的抖音文案，要求：1. 突出视频亮点 2. 使用热门话题标签 3. 语言生动有趣 4. 适合抖音平台传播"

const rewriteTemplate = `基于以下信息，创作一个新的短视频脚本：

【原视频分析】
%s

【视频特点分析】
%s

【账号定位】
%s

请结合你的账号定位，重新创作一个短视频脚本。要求：
1. 保持原视频的核心创意或主题，但要用你的账号风格来呈现
2. 脚本要符合你的账号定位和人物角色
3. 脚本要适合短视频平台，时长控制在45秒以内
4. 脚本要有清晰的开始、发展、高潮、结尾结构
5. 语言要生动有趣，符合你的账号风格`

// RewritePrompt builds the persona-conditioned rewrite prompt.
func RewritePrompt(transcript, analysis, positioning string) string {
	return fmt.Sprintf(rewriteTemplate,
		strings.TrimSpace(transcript),
		strings.TrimSpace(analysis),
		strings.TrimSpace(positioning),
	)
}
