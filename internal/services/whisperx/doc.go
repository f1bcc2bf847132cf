// Package whisperx runs WhisperX transcription through uvx.
//
// The service writes WhisperX's JSON and SRT outputs next to the converted
// audio in the job work directory and returns their paths; parsing lives in
// the transcript package. Configuration options (model, language, CUDA, VAD
// method) are passed via Config.
package whisperx
