package yenfolio

import "time"

const tokyoTimeZoneName = "Asia/Tokyo"

var tokyoLocation = loadTokyoLocation()

func loadTokyoLocation() *time.Location {
	location, err := time.LoadLocation(tokyoTimeZoneName)
	if err != nil {
		return time.FixedZone(tokyoTimeZoneName, 9*60*60)
	}
	return location
}

// NowInTokyo returns current time in Asia/Tokyo.
func NowInTokyo() time.Time {
	return time.Now().In(tokyoLocation)
}

// TodayISOInTokyo returns current date using YYYY-MM-DD in Asia/Tokyo.
func TodayISOInTokyo() string {
	return NowInTokyo().Format("2006-01-02")
}

// NowRFC3339InTokyo returns current RFC3339 timestamp in Asia/Tokyo.
func NowRFC3339InTokyo() string {
	return NowInTokyo().Format(time.RFC3339)
}

// CurrentYearInTokyo returns the current calendar year in Asia/Tokyo.
// The in-progress year for live performance overrides is defined by this.
func CurrentYearInTokyo() int {
	return NowInTokyo().Year()
}

// TokyoLocation exposes the portfolio's reporting time zone.
func TokyoLocation() *time.Location {
	return tokyoLocation
}
