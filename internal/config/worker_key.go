package config

type WorkerKeyStruct struct {
	SuggestionQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SuggestionQueue: "suggestion_queue",
}
