package trends

// Region identifies a supported trending-keywords region.
type Region struct {
	ID   string
	Name string
	Geo  string
}

const defaultRegionID = "south_korea"

var regions = map[string]Region{
	"south_korea": {ID: "south_korea", Name: "한국", Geo: "KR"},
}

var regionOrder = []string{"south_korea"}

// Regions lists the supported regions in a stable order.
func Regions() []Region {
	out := make([]Region, 0, len(regionOrder))
	for _, id := range regionOrder {
		out = append(out, regions[id])
	}
	return out
}

// regionOrDefault resolves a region ID, falling back to the default region
// for unknown values instead of failing.
func regionOrDefault(id string) Region {
	if region, ok := regions[id]; ok {
		return region
	}
	return regions[defaultRegionID]
}

// fallbackKeywords is a fixed pool of evergreen Korean blog topics used to pad
// trend results when upstream collection comes up short.
var fallbackKeywords = []string{
	// AI/테크
	"ChatGPT 활용법", "Claude AI", "AI 이미지 생성", "Midjourney 사용법", "Copilot 활용",
	"AI 자동화", "GPT-4o", "AI 코딩", "Sora AI", "노코드 자동화",
	// 경제/투자
	"비트코인 전망", "금 투자", "미국 주식", "배당주 추천", "ETF 추천",
	"부동산 전망", "금리 인하", "환율 전망", "연말정산 꿀팁", "청년 지원금",
	// IT/가젯
	"아이폰 16", "갤럭시 S25", "맥북 M4", "PS5 프로", "닌텐도 스위치2",
	"무선 이어폰 추천", "태블릿 추천", "모니터 추천", "키보드 추천", "마우스 추천",
	// 생활/건강
	"다이어트 식단", "홈트레이닝", "헬스장 루틴", "수면 개선", "명상 앱",
	"맛집 추천", "카페 추천", "밀키트 추천", "에어프라이어 레시피", "간헐적 단식",
	// 여행/문화
	"국내 여행지", "제주도 맛집", "일본 여행", "유럽 여행", "항공권 특가",
	"넷플릭스 추천", "왓챠 추천", "웨이브 추천", "K-드라마", "영화 리뷰",
	// 커리어/교육
	"이직 준비", "면접 팁", "자기소개서", "코딩 독학", "영어 회화",
	"자격증 추천", "부업 추천", "재택근무 팁", "프리랜서", "온라인 강의",
	// 취미
	"캠핑 장비", "등산 코스", "러닝 입문", "홈카페", "독서 추천",
	"게임 추천", "보드게임", "레고 추천", "반려동물", "식물 키우기",
}
