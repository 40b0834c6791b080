package bot

// ExtractScore exposes extractScore to external tests.
var ExtractScore = extractScore
