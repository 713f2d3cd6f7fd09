package pool

import "github.com/lexiquest/lexiquest/internal/trial"

// Content holds every in-memory list the pool draws from.
type Content struct {
	Jumble    []string
	Spelling  []string
	Pairs     []trial.Pair
	Speech    []string
	Listening []string
}

// Builtin returns the bundled content. Each call returns fresh slices.
func Builtin() Content {
	return Content{
		Jumble:    append([]string(nil), jumbleSentences...),
		Spelling:  append([]string(nil), spellingWords...),
		Pairs:     append([]trial.Pair(nil), memoryPairs...),
		Speech:    append([]string(nil), speechFallback...),
		Listening: append([]string(nil), listeningFallback...),
	}
}

var jumbleSentences = []string{
	// everyday
	"The cat sleeps on the soft mat",
	"My dog plays with a red ball",
	"We eat breakfast every morning",
	"The sun shines in the sky",
	"Birds fly high above trees",
	"I love my family very much",
	"Children play in the park",
	"The fish swim in water",
	"We read books every day",
	"Mother cooks delicious food",

	// home
	"My father reads the newspaper",
	"We watch television together",
	"The baby sleeps in the crib",
	"Our house has a big garden",
	"We clean our rooms daily",
	"Grandma tells wonderful stories",
	"We eat dinner at the table",
	"My sister plays the piano",
	"Brothers share their toys",
	"We help with household chores",

	// school
	"Students learn in the classroom",
	"Teachers write on the board",
	"We use pencils for writing",
	"The library has many books",
	"Children raise their hands",
	"We solve math problems together",
	"Science class is very interesting",
	"We draw pictures with crayons",
	"Students listen to stories",
	"We practice spelling words",

	// nature
	"Butterflies fly among flowers",
	"Rabbits hop in the grass",
	"Bees make sweet honey",
	"Trees grow tall and strong",
	"Flowers bloom in spring",
	"The moon shines at night",
	"Stars twinkle in the sky",
	"Rain falls from clouds",
	"Snow covers the ground",
	"Wind blows through trees",

	// health
	"We eat fruits for health",
	"Vegetables make us strong",
	"Drinking water is important",
	"We brush our teeth daily",
	"Exercise keeps us fit",
	"Sleep helps us grow",
	"We wash our hands often",
	"Milk makes bones strong",

	// play
	"We play games with friends",
	"Children ride their bicycles",
	"We swim in the pool",
	"Friends jump rope together",
	"We build with toy blocks",
	"Children sing happy songs",
	"Friends play hide and seek",

	// seasons
	"The sun warms the earth",
	"Rain helps plants grow",
	"Snow is cold and white",
	"Summer days are hot",
	"Winter brings cold weather",
	"Autumn leaves change color",

	// helpers
	"Doctors help sick people",
	"Firefighters put out fires",
	"Farmers grow our food",
	"Nurses care for patients",
	"Chefs cook delicious meals",

	// travel
	"Cars drive on roads",
	"Buses carry many people",
	"Trains run on tracks",
	"Boats sail on water",
	"Bicycles have two wheels",
	"Ships cross the ocean",

	// shapes and numbers
	"The sky is blue",
	"Bananas are yellow",
	"Squares have four sides",
	"Triangles have three corners",
	"We count from one to ten",
	"Two plus two equals four",

	// feelings and values
	"Happy people smile often",
	"Kindness helps other people",
	"Friendship is very important",
	"We should always be honest",
	"Sharing makes us good friends",
	"We say please and thank you",
	"We take turns when playing",
	"We should never give up",
}

var spellingWords = []string{
	"cat", "dog", "sun", "book", "ball", "tree", "house", "water",
	"happy", "friend", "school", "family", "animal", "garden", "flower",
	"mother", "father", "sister", "brother", "color",
	"apple", "banana", "orange", "grape", "lemon", "peach",
	"table", "chair", "window", "door", "floor", "ceiling",
	"pencil", "paper", "eraser", "ruler", "crayon", "marker",
}

var memoryPairs = []trial.Pair{
	{Key: "CAT", Emoji: "🐱"},
	{Key: "DOG", Emoji: "🐶"},
	{Key: "SUN", Emoji: "☀️"},
	{Key: "STAR", Emoji: "⭐"},
	{Key: "BOOK", Emoji: "📚"},
	{Key: "BALL", Emoji: "⚽"},
	{Key: "FISH", Emoji: "🐠"},
	{Key: "BIRD", Emoji: "🐦"},
	{Key: "CAKE", Emoji: "🍰"},
	{Key: "TREE", Emoji: "🌳"},
	{Key: "MOON", Emoji: "🌙"},
	{Key: "BEAR", Emoji: "🐻"},
	{Key: "DUCK", Emoji: "🦆"},
	{Key: "FROG", Emoji: "🐸"},
	{Key: "LION", Emoji: "🦁"},
	{Key: "APPLE", Emoji: "🍎"},
	{Key: "HEART", Emoji: "❤️"},
	{Key: "HOUSE", Emoji: "🏠"},
	{Key: "CAR", Emoji: "🚗"},
	{Key: "SHIP", Emoji: "🚢"},
}

// Non-adaptive fallbacks, exactly TestItems long.
var speechFallback = []string{
	"The cat sleeps on the soft mat near the warm fireplace every afternoon.",
	"My little brother loves to play with his red ball in the green garden.",
	"We eat breakfast together every morning before going to school and work.",
	"The sun rises in the east and sets in the west every single day.",
	"Birds build nests in trees to lay eggs and raise their young babies.",
}

var listeningFallback = []string{
	"The sun shines bright in the clear blue sky today",
	"My dog likes to play fetch with a red rubber ball",
	"Children love to run and jump in the playground",
	"Books help us learn new things and imagine stories",
	"My family eats dinner together at the kitchen table",
}
