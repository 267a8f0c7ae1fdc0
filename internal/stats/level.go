package stats

const pointsPerLevel = 10

var levelTitles = []string{
	"Newcomer",   // level 1
	"Starter",    // level 2
	"Consistent", // level 3
	"Committed",  // level 4
	"Dedicated",  // level 5
	"Champion",   // level 6
	"Elite",      // level 7+
}

func Level(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/pointsPerLevel + 1
}

func PointsToNextLevel(totalPoints int) int {
	return Level(totalPoints)*pointsPerLevel - totalPoints
}

// LevelTitle caps the displayed title at level 7 ("Elite").
func LevelTitle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(levelTitles) {
		level = len(levelTitles)
	}
	return levelTitles[level-1]
}
