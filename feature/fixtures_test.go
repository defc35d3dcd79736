package feature

import "fmt"

// sampleMovies 构造一个小目录：
//
//	1 Alpha  Action,Drama  en 2010 120min（ID 重复一次，首次出现生效）
//	2 Beta   Drama         fr 1999 100min
//	3 Gamma  Comedy        en 缺失年份/时长/评分
//	4 Delta  无类型         es 2020 冷启动
func sampleMovies() []RawMovie {
	return []RawMovie{
		{
			ID: 1, Title: "Alpha", Genres: "Action, Drama", Language: "en", ReleaseDate: "2010-05-01",
			Runtime: Float(120), VoteAverage: Float(7.5), VoteCount: Float(1000), Popularity: Float(50),
			Overview: String("A hero saves the city."), Keywords: String("hero, city, "),
		},
		{
			ID: 2, Title: "Beta", Genres: "Drama", Language: "fr", ReleaseDate: "1999-01-01",
			Runtime: Float(100), VoteAverage: Float(6.0), VoteCount: Float(10), Popularity: Float(5),
		},
		{
			ID: 3, Title: "Gamma", Genres: "Comedy", Language: "en",
			Popularity: Float(1),
		},
		{
			ID: 4, Title: "Delta", Language: "es", ReleaseDate: "2020",
			Runtime: Float(90), VoteAverage: Float(8), VoteCount: Float(0), Popularity: Float(0),
		},
		{
			ID: 1, Title: "Alpha (duplicate)", Genres: "Horror", Language: "de",
		},
	}
}

// sampleTrain: 电影 1、2 各 12 行，电影 3 共 5 行（Comedy 达不到阈值 10）。
func sampleTrain() []Interaction {
	var rows []Interaction
	for i := 0; i < 12; i++ {
		uid := fmt.Sprintf("u%d", i%3)
		rows = append(rows,
			Interaction{UserID: uid, MovieID: 1, Target: Label(true)},
			Interaction{UserID: uid, MovieID: 2, Target: Label(false)},
		)
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, Interaction{UserID: "u9", MovieID: 3, Target: Label(true)})
	}
	return rows
}

func fitSample(opts ...Option) *Transformer {
	return Fit(sampleTrain(), sampleMovies(), opts...)
}
