// Package prompt assembles the system and user prompts sent to the language
// model. Builders are pure functions over their inputs so identical requests
// always produce identical prompts.
package prompt

import (
	"fmt"
	"strings"

	"blogforge/app/internal/webfetch"
)

const (
	maxReferenceChars  = 4000
	maxURLContentChars = 6000
)

// SystemPrompt constrains the model to plain Markdown output for Tistory.
const SystemPrompt = "You are an expert blog writer for Tistory. Your output must be valid Markdown only, " +
	"no code fences or extra labels. Use ## for sections, ### for subsections, " +
	"**bold**, lists, and short paragraphs. No YAML frontmatter."

var styleDescriptions = map[string]string{
	"정보성":  "유용한 정보를 체계적으로 정리한 설명형",
	"리뷰":   "주관적인 경험과 의견이 담긴 리뷰형",
	"How-to": "단계별로 따라 할 수 있는 가이드형",
	"뉴스해설": "최근 이슈를 요약하고 의견을 덧붙이는 해설형",
}

var lengthDescriptions = map[string]string{
	"short":  "본문 400~600자 분량",
	"medium": "본문 800~1,200자 분량",
	"long":   "본문 1,200~1,800자 분량",
}

// Input parameterizes a keyword-based article prompt.
type Input struct {
	Keyword    string
	Lang       string
	Style      string
	UseEmoji   bool
	WebContext string
	Length     string
	Guide      string
	Reference  string
}

// URLInput parameterizes an article prompt derived from a fetched page.
type URLInput struct {
	Page          *webfetch.Page
	Lang          string
	Style         string
	UseEmoji      bool
	RelatedSearch string
	Length        string
	Guide         string
}

func styleDescription(style string) string {
	if desc, ok := styleDescriptions[style]; ok {
		return desc
	}
	return styleDescriptions["정보성"]
}

func lengthDescription(length string) string {
	if desc, ok := lengthDescriptions[length]; ok {
		return desc
	}
	return lengthDescriptions["medium"]
}

func langDirectives(lang string) (language, title string) {
	if lang == "ko" {
		return "반드시 한국어로만 작성하세요.", "첫 번째 # 제목을 글의 메인 제목으로 사용하세요."
	}
	return "Write in English only.", "Use the first # heading as the main title."
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func writeCommonRequirements(b *strings.Builder, lengthDesc string, useEmoji bool) {
	fmt.Fprintf(b, "- %s (의미 있는 문단/문장 기준)\n", lengthDesc)
	b.WriteString("- **글체**: 편안하고 부드러운 톤으로 써 주세요. '서론', '결론', '본론', '이에 대해', '다음과 같이', '정리하면' 같은 딱딱하거나 격식 있는 표현은 쓰지 말고, 구어체에 가까운 친근한 문장으로 자연스럽게 이어 주세요.\n")
	b.WriteString("- 소제목(##, ###)으로 읽기 쉽게 구분하되, '서론/결론'처럼 형식을 드러내는 제목은 쓰지 마세요.\n")
	b.WriteString("- 자연스럽고 SEO에 유리한 문장\n")
	b.WriteString("- 마지막은 따로 '결론'이라 부르지 말고, 이야기를 부드럽게 마무리하는 문단 1~2개\n")
	b.WriteString("- 글 끝에 #태그1 #태그2 #태그3 ... 형태로 태그 5~10개를 한 줄에 붙여 주세요. (주제·키워드·SEO 관련, 공백으로 구분)\n")
	if useEmoji {
		b.WriteString("\n- 제목, 소제목, 문단에 주제에 맞는 이모지를 적당히 넣어 주세요. 과하지 않게 사용하세요.")
	} else {
		b.WriteString("\n- 이모지는 사용하지 마세요.")
	}
}

func writeGuideBlock(b *strings.Builder, guide string) {
	guide = strings.TrimSpace(guide)
	if guide == "" {
		return
	}
	b.WriteString("\n\n아래는 사용자가 요청한 **글 작성 가이드**입니다. 이 가이드를 최우선으로 반영하여 글을 작성해 주세요:\n\n---\n")
	b.WriteString(guide)
	b.WriteString("\n---\n")
}

// Build renders the user prompt for a keyword-based article.
func Build(in Input) string {
	language, title := langDirectives(in.Lang)

	var b strings.Builder
	b.WriteString("다음 키워드를 주제로 티스토리 블로그 글을 마크다운으로 작성해 주세요.\n\n")
	fmt.Fprintf(&b, "키워드: %s\n", in.Keyword)
	fmt.Fprintf(&b, "글 스타일: %s\n", styleDescription(in.Style))
	b.WriteString(language + "\n")
	b.WriteString(title + "\n\n")
	b.WriteString("요구사항:\n")
	writeCommonRequirements(&b, lengthDescription(in.Length), in.UseEmoji)

	if webContext := strings.TrimSpace(in.WebContext); webContext != "" {
		b.WriteString("\n\n아래는 이 키워드에 대한 최신 웹 검색 결과와 **뉴스 기사**입니다. 뉴스(일반 뉴스·구글 뉴스 등)를 특히 참고하여 **최신 동향·숫자·사실·시사**를 반영하고, 독자가 관심 가질 만한 시의성 있는 내용을 담아 주세요. 원문을 그대로 복사하지 말고 재해석하여 자연스럽게 활용하세요.\n\n---\n")
		b.WriteString(webContext)
		b.WriteString("\n---\n")
	}

	writeGuideBlock(&b, in.Guide)

	if reference := strings.TrimSpace(in.Reference); reference != "" {
		b.WriteString("\n\n아래는 **참고해야 할 URL의 콘텐츠**입니다. 이 내용을 참고하여 글을 작성해 주세요. 원문을 그대로 복사하지 말고 참고만 하세요:\n\n---\n")
		b.WriteString(truncateRunes(reference, maxReferenceChars))
		b.WriteString("\n---\n")
	}

	return b.String()
}

// BuildFromURL renders the user prompt for an article derived from a fetched
// page. Page text is truncated so long articles cannot blow the context
// window.
func BuildFromURL(in URLInput) string {
	language, title := langDirectives(in.Lang)

	var b strings.Builder
	b.WriteString("다음 URL의 콘텐츠를 분석하여 관련된 티스토리 블로그 글을 마크다운으로 작성해 주세요.\n\n")
	fmt.Fprintf(&b, "URL: %s", in.Page.URL)
	if in.Page.Title != "" {
		fmt.Fprintf(&b, "\n제목: %s", in.Page.Title)
	}
	if in.Page.Description != "" {
		fmt.Fprintf(&b, "\n설명: %s", in.Page.Description)
	}
	b.WriteString("\n\n--- 원본 콘텐츠 ---\n")
	b.WriteString(truncateRunes(in.Page.Text, maxURLContentChars))
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "글 스타일: %s\n", styleDescription(in.Style))
	b.WriteString(language + "\n")
	b.WriteString(title + "\n\n")
	b.WriteString("요구사항:\n")
	fmt.Fprintf(&b, "- %s (의미 있는 문단/문장 기준)\n", lengthDescription(in.Length))
	b.WriteString("- 원본 URL의 내용을 그대로 복사하지 말고, 핵심 내용을 파악하여 **새로운 관점**으로 재구성해 주세요\n")
	b.WriteString("- 원본의 주제를 확장하거나, 독자에게 더 유용한 정보를 추가해 주세요\n")
	b.WriteString("- **글체**: 편안하고 부드러운 톤으로 써 주세요. '서론', '결론', '본론', '이에 대해', '다음과 같이', '정리하면' 같은 딱딱하거나 격식 있는 표현은 쓰지 말고, 구어체에 가까운 친근한 문장으로 자연스럽게 이어 주세요.\n")
	b.WriteString("- 소제목(##, ###)으로 읽기 쉽게 구분하되, '서론/결론'처럼 형식을 드러내는 제목은 쓰지 마세요.\n")
	b.WriteString("- 자연스럽고 SEO에 유리한 문장\n")
	b.WriteString("- 마지막은 따로 '결론'이라 부르지 말고, 이야기를 부드럽게 마무리하는 문단 1~2개\n")
	b.WriteString("- 글 끝에 #태그1 #태그2 #태그3 ... 형태로 태그 5~10개를 한 줄에 붙여 주세요. (주제·키워드·SEO 관련, 공백으로 구분)\n")
	if in.UseEmoji {
		b.WriteString("\n- 제목, 소제목, 문단에 주제에 맞는 이모지를 적당히 넣어 주세요. 과하지 않게 사용하세요.")
	} else {
		b.WriteString("\n- 이모지는 사용하지 마세요.")
	}

	if related := strings.TrimSpace(in.RelatedSearch); related != "" {
		b.WriteString("\n\n아래는 이 주제와 관련된 최신 웹 검색 결과와 **뉴스 기사**입니다. 이를 참고하여 **최신 동향·숫자·사실·시사**를 반영하고, 독자가 관심 가질 만한 시의성 있는 내용을 담아 주세요. 원문을 그대로 복사하지 말고 재해석하여 자연스럽게 활용하세요.\n\n---\n")
		b.WriteString(related)
		b.WriteString("\n---\n")
	}

	writeGuideBlock(&b, in.Guide)

	return b.String()
}
