package domain

import (
	"fmt"
	"strings"
)

type Region string

func (r Region) String() string {
	return string(r)
}

const (
	RegionDobong       Region = "dobong"
	RegionGangbuk      Region = "gangbuk"
	RegionNowon        Region = "nowon"
	RegionEunpyeong    Region = "eunpyeong"
	RegionSeodaemun    Region = "seodaemun"
	RegionMapo         Region = "mapo"
	RegionSeongbuk     Region = "seongbuk"
	RegionDongdaemun   Region = "dongdaemun"
	RegionJungnang     Region = "jungnang"
	RegionJongno       Region = "jongno"
	RegionJunggu       Region = "junggu"
	RegionYongsan      Region = "yongsan"
	RegionGangseo      Region = "gangseo"
	RegionYangcheon    Region = "yangcheon"
	RegionGuro         Region = "guro"
	RegionGeumcheon    Region = "geumcheon"
	RegionYeongdeungpo Region = "yeongdeungpo"
	RegionDongjak      Region = "dongjak"
	RegionGwanak       Region = "gwanak"
	RegionSeocho       Region = "seocho"
	RegionGangnam      Region = "gangnam"
	RegionSeongdong    Region = "seongdong"
	RegionGwangjin     Region = "gwangjin"
	RegionSongpa       Region = "songpa"
	RegionGangdong     Region = "gangdong"
)

// Regions lists every district in canonical (section) order.
var Regions = []Region{
	RegionDobong, RegionGangbuk, RegionNowon,
	RegionEunpyeong, RegionSeodaemun, RegionMapo,
	RegionSeongbuk, RegionDongdaemun, RegionJungnang,
	RegionJongno, RegionJunggu, RegionYongsan,
	RegionGangseo, RegionYangcheon, RegionGuro, RegionGeumcheon,
	RegionYeongdeungpo, RegionDongjak, RegionGwanak,
	RegionSeocho, RegionGangnam,
	RegionSeongdong, RegionGwangjin, RegionSongpa, RegionGangdong,
}

var regionNames = map[Region]string{
	RegionDobong:       "도봉",
	RegionGangbuk:      "강북",
	RegionNowon:        "노원",
	RegionEunpyeong:    "은평",
	RegionSeodaemun:    "서대문",
	RegionMapo:         "마포",
	RegionSeongbuk:     "성북",
	RegionDongdaemun:   "동대문",
	RegionJungnang:     "중랑",
	RegionJongno:       "종로",
	RegionJunggu:       "중구",
	RegionYongsan:      "용산",
	RegionGangseo:      "강서",
	RegionYangcheon:    "양천",
	RegionGuro:         "구로",
	RegionGeumcheon:    "금천",
	RegionYeongdeungpo: "영등포",
	RegionDongjak:      "동작",
	RegionGwanak:       "관악",
	RegionSeocho:       "서초",
	RegionGangnam:      "강남",
	RegionSeongdong:    "성동",
	RegionGwangjin:     "광진",
	RegionSongpa:       "송파",
	RegionGangdong:     "강동",
}

// Name returns the Korean display name of the district.
func (r Region) Name() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return "Unknown"
}

func (r Region) Valid() bool {
	_, ok := regionNames[r]
	return ok
}

// ParseRegion accepts either the raw id ("dobong") or the display name ("도봉").
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if r := Region(strings.ToLower(s)); r.Valid() {
		return r, nil
	}
	for r, name := range regionNames {
		if name == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// RegionSection is a fixed group of districts shown together as one filterable area.
type RegionSection struct {
	Index     int      `json:"index"`
	Regions   []Region `json:"regions"`
	ShopCount int      `json:"shop_count"` // display hint only
	Color     string   `json:"color"`
}

// Name joins the display names of the member districts, e.g. "도봉,강북,노원".
func (s RegionSection) Name() string {
	names := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		names[i] = r.Name()
	}
	return strings.Join(names, ",")
}

func (s RegionSection) Contains(region Region) bool {
	for _, r := range s.Regions {
		if r == region {
			return true
		}
	}
	return false
}

var sections = []RegionSection{
	{Index: 0, Regions: []Region{RegionDobong, RegionGangbuk, RegionNowon}, ShopCount: 14, Color: "#FFB6C1"},
	{Index: 1, Regions: []Region{RegionEunpyeong, RegionSeodaemun, RegionMapo}, ShopCount: 38, Color: "#FFD59E"},
	{Index: 2, Regions: []Region{RegionSeongbuk, RegionDongdaemun, RegionJungnang}, ShopCount: 17, Color: "#C9E4A6"},
	{Index: 3, Regions: []Region{RegionJongno, RegionJunggu, RegionYongsan}, ShopCount: 21, Color: "#A8D8EA"},
	{Index: 4, Regions: []Region{RegionGangseo, RegionYangcheon, RegionGuro, RegionGeumcheon}, ShopCount: 19, Color: "#D4C1EC"},
	{Index: 5, Regions: []Region{RegionYeongdeungpo, RegionDongjak, RegionGwanak}, ShopCount: 23, Color: "#F7C8E0"},
	{Index: 6, Regions: []Region{RegionSeocho, RegionGangnam}, ShopCount: 42, Color: "#FFE1A8"},
	{Index: 7, Regions: []Region{RegionSeongdong, RegionGwangjin, RegionSongpa, RegionGangdong}, ShopCount: 31, Color: "#B5EAD7"},
}

func copySection(s RegionSection) RegionSection {
	s.Regions = append([]Region(nil), s.Regions...)
	return s
}

// SectionsForAllRegions returns the canonical partition in display order.
func SectionsForAllRegions() []RegionSection {
	result := make([]RegionSection, len(sections))
	for i, s := range sections {
		result[i] = copySection(s)
	}
	return result
}

// SectionContaining panics when the region is not part of the partition: the
// table is closed, so a miss is a definition bug.
func SectionContaining(region Region) RegionSection {
	for _, s := range sections {
		if s.Contains(region) {
			return copySection(s)
		}
	}
	panic(fmt.Sprintf("region %q is not assigned to any section", region))
}

func SectionByIndex(index int) (RegionSection, bool) {
	if index < 0 || index >= len(sections) {
		return RegionSection{}, false
	}
	return copySection(sections[index]), true
}

// ParseSection resolves a section by its joined display name or by any member region.
func ParseSection(s string) (RegionSection, error) {
	s = strings.TrimSpace(s)
	for _, section := range sections {
		if section.Name() == s {
			return copySection(section), nil
		}
	}
	if region, err := ParseRegion(s); err == nil {
		return SectionContaining(region), nil
	}
	return RegionSection{}, fmt.Errorf("unknown section %q", s)
}
