package apifootball

import "github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"

type idName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type leagueItem struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"country"`
	Seasons []struct {
		Year    int    `json:"year"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Current bool   `json:"current"`
	} `json:"seasons"`
}

type teamItem struct {
	Team struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Code     string `json:"code"`
		Country  string `json:"country"`
		National bool   `json:"national"`
	} `json:"team"`
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Long    string `json:"long"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home idName `json:"home"`
		Away idName `json:"away"`
	} `json:"teams"`
	Goals usecase.ScorePair `json:"goals"`
	Score struct {
		HalfTime  usecase.ScorePair `json:"halftime"`
		FullTime  usecase.ScorePair `json:"fulltime"`
		ExtraTime usecase.ScorePair `json:"extratime"`
		Penalty   usecase.ScorePair `json:"penalty"`
	} `json:"score"`
}

type splitCount struct {
	Home  *int `json:"home"`
	Away  *int `json:"away"`
	Total *int `json:"total"`
}

type teamStatisticsItem struct {
	Team     idName `json:"team"`
	Form     string `json:"form"`
	Fixtures struct {
		Played splitCount `json:"played"`
		Wins   splitCount `json:"wins"`
		Draws  splitCount `json:"draws"`
		Loses  splitCount `json:"loses"`
	} `json:"fixtures"`
	Goals struct {
		For struct {
			Total splitCount `json:"total"`
		} `json:"for"`
		Against struct {
			Total splitCount `json:"total"`
		} `json:"against"`
	} `json:"goals"`
	CleanSheet    splitCount `json:"clean_sheet"`
	FailedToScore splitCount `json:"failed_to_score"`
}

type standingRow struct {
	Rank        int    `json:"rank"`
	Team        idName `json:"team"`
	Points      int    `json:"points"`
	GoalsDiff   int    `json:"goalsDiff"`
	Group       string `json:"group"`
	Form        string `json:"form"`
	Description string `json:"description"`
	All         struct {
		Played int `json:"played"`
		Win    int `json:"win"`
		Draw   int `json:"draw"`
		Lose   int `json:"lose"`
		Goals  struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}

type standingsItem struct {
	League struct {
		ID        int64           `json:"id"`
		Season    int             `json:"season"`
		Standings [][]standingRow `json:"standings"`
	} `json:"league"`
}

type fixtureStatisticsItem struct {
	Team       idName `json:"team"`
	Statistics []struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	} `json:"statistics"`
}

type injuryItem struct {
	Player struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"player"`
	Team idName `json:"team"`
}

type predictionItem struct {
	Predictions struct {
		Winner struct {
			ID      int64  `json:"id"`
			Name    string `json:"name"`
			Comment string `json:"comment"`
		} `json:"winner"`
		WinOrDraw bool   `json:"win_or_draw"`
		UnderOver string `json:"under_over"`
		Goals     struct {
			Home string `json:"home"`
			Away string `json:"away"`
		} `json:"goals"`
		Advice  string `json:"advice"`
		Percent struct {
			Home string `json:"home"`
			Draw string `json:"draw"`
			Away string `json:"away"`
		} `json:"percent"`
	} `json:"predictions"`
}

type lineupPlayer struct {
	Player struct {
		Name   string `json:"name"`
		Number int    `json:"number"`
		Pos    string `json:"pos"`
		Grid   string `json:"grid"`
	} `json:"player"`
}

type lineupItem struct {
	Team      idName `json:"team"`
	Formation string `json:"formation"`
	Coach     struct {
		Name string `json:"name"`
	} `json:"coach"`
	StartXI     []lineupPlayer `json:"startXI"`
	Substitutes []lineupPlayer `json:"substitutes"`
}

type oddsItem struct {
	Bookmakers []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Bets []struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}
