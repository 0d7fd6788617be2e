package quiz

// Quizzes are immutable once created, so cached definitions never go stale and
// are never evicted.

func (s *Service) getCachedQuiz(quizID string) (Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.quizCache[quizID]
	return cached, ok
}

func (s *Service) setCachedQuiz(q Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizCache[q.ID] = q
}

func (s *Service) cachedQuizCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quizCache)
}
